// Package commands implements the command graph transported by the Declare
// Commands packet: a flat list of nodes (root/literal/argument) each carrying
// a child index list, an optional redirect, and — for argument nodes — a
// parser selector describing how the client should suggest and validate
// input.
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Declare_Commands
package commands

import (
	"errors"
	"fmt"

	ns "github.com/go-mclib/server/net_structures"
)

// NodeKind is the command node's own type, carried in the low two bits of
// Command.Flags.
//
// The vanilla protocol's authoritative mapping is 0 -> Root, 1 -> Literal,
// 2 -> Argument. (A decoder that instead treats 1 as Argument and 2 as
// Literal is decoding a different, incompatible wire format.)
type NodeKind byte

const (
	NodeRoot NodeKind = iota
	NodeLiteral
	NodeArgument
)

const (
	flagNodeKindMask      byte = 0x03
	flagExecutable        byte = 0x04
	flagHasRedirect       byte = 0x08
	flagHasSuggestionsLoc byte = 0x10
)

// StringType selects how a String argument's raw text is delimited.
type StringType byte

const (
	StringSingleWord StringType = iota
	StringQuotablePhrase
	StringGreedyPhrase
)

func (s StringType) ToBytes() (ns.ByteArray, error) {
	return ns.VarInt(s).ToBytes()
}

func (s *StringType) FromBytes(data ns.ByteArray) (int, error) {
	var v ns.VarInt
	n, err := v.FromBytes(data)
	if err != nil {
		return 0, err
	}
	*s = StringType(v)
	return n, nil
}

// NumberRange carries the optional min/max bounds shared by the Float,
// Double, Integer, and Long argument kinds, packed ahead of the bounds as a
// two-bit presence flag (bit 0: has min, bit 1: has max).
type NumberRange struct {
	HasMin bool
	HasMax bool
	Min    float64
	Max    float64
}

func (r NumberRange) flagByte() byte {
	var b byte
	if r.HasMin {
		b |= 0x01
	}
	if r.HasMax {
		b |= 0x02
	}
	return b
}

// EntityFlags is the Entity argument kind's packed boolean record: bit 0
// restricts matches to a single entity, bit 1 restricts matches to players.
type EntityFlags struct {
	Single      bool
	PlayersOnly bool
}

func (f EntityFlags) flagByte() byte {
	var b byte
	if f.Single {
		b |= 0x01
	}
	if f.PlayersOnly {
		b |= 0x02
	}
	return b
}

// ArgumentKind enumerates the parser brigadier assigns to an Argument node,
// in declaration order — this ordering is the wire tag, not merely a label.
type ArgumentKind int32

const (
	ArgumentBool ArgumentKind = iota
	ArgumentFloat
	ArgumentDouble
	ArgumentInteger
	ArgumentLong
	ArgumentString
	ArgumentEntity
	ArgumentGameProfile
	ArgumentBlockPos
	ArgumentColumnPos
	ArgumentVec3
	ArgumentVec2
	ArgumentBlockState
	ArgumentBlockPredicate
	ArgumentItemStack
	ArgumentItemPredicate
	ArgumentColor
	ArgumentComponent
	ArgumentMessage
	ArgumentNbtCompoundTag
	ArgumentNbtTag
	ArgumentNbtPath
	ArgumentObjective
	ArgumentObjectiveCriteria
	ArgumentOperation
	ArgumentParticle
	ArgumentAngle
	ArgumentRotation
	ArgumentScoreboardSlot
	ArgumentScoreHolder
	ArgumentSwizzle
	ArgumentTeam
	ArgumentItemSlot
	ArgumentResourceLocation
	ArgumentMobEffect
	ArgumentFunction
	ArgumentEntityAnchor
	ArgumentIntRange
	ArgumentFloatRange
	ArgumentItemEnchantment
	ArgumentEntitySummon
	ArgumentDimension
	ArgumentTime
	ArgumentResourceOrTag
	ArgumentResource
	ArgumentTemplateMirror
	ArgumentTemplateRotation
	ArgumentUuid
)

// Argument is the parser and parser-specific properties for an Argument
// node. Only the field(s) relevant to Kind are meaningful; the rest are
// zero and ignored on encode.
type Argument struct {
	Kind ArgumentKind

	// Float, Double, Integer, Long
	Range NumberRange

	// String
	StringType StringType

	// Entity
	Entity EntityFlags

	// ScoreHolder
	AllowMultiple bool

	// ResourceOrTag, Resource
	Registry ns.Identifier
}

func (a Argument) ToBytes() (ns.ByteArray, error) {
	tagBytes, err := ns.VarInt(a.Kind).ToBytes()
	if err != nil {
		return nil, err
	}
	result := tagBytes

	switch a.Kind {
	case ArgumentFloat:
		result = append(result, a.Range.flagByte())
		if a.Range.HasMin {
			b, err := ns.Float(a.Range.Min).ToBytes()
			if err != nil {
				return nil, err
			}
			result = append(result, b...)
		}
		if a.Range.HasMax {
			b, err := ns.Float(a.Range.Max).ToBytes()
			if err != nil {
				return nil, err
			}
			result = append(result, b...)
		}
	case ArgumentDouble:
		result = append(result, a.Range.flagByte())
		if a.Range.HasMin {
			b, err := ns.Double(a.Range.Min).ToBytes()
			if err != nil {
				return nil, err
			}
			result = append(result, b...)
		}
		if a.Range.HasMax {
			b, err := ns.Double(a.Range.Max).ToBytes()
			if err != nil {
				return nil, err
			}
			result = append(result, b...)
		}
	case ArgumentInteger:
		result = append(result, a.Range.flagByte())
		if a.Range.HasMin {
			b, err := ns.Int(int32(a.Range.Min)).ToBytes()
			if err != nil {
				return nil, err
			}
			result = append(result, b...)
		}
		if a.Range.HasMax {
			b, err := ns.Int(int32(a.Range.Max)).ToBytes()
			if err != nil {
				return nil, err
			}
			result = append(result, b...)
		}
	case ArgumentLong:
		result = append(result, a.Range.flagByte())
		if a.Range.HasMin {
			b, err := ns.Long(int64(a.Range.Min)).ToBytes()
			if err != nil {
				return nil, err
			}
			result = append(result, b...)
		}
		if a.Range.HasMax {
			b, err := ns.Long(int64(a.Range.Max)).ToBytes()
			if err != nil {
				return nil, err
			}
			result = append(result, b...)
		}
	case ArgumentString:
		b, err := a.StringType.ToBytes()
		if err != nil {
			return nil, err
		}
		result = append(result, b...)
	case ArgumentEntity:
		result = append(result, a.Entity.flagByte())
	case ArgumentScoreHolder:
		b, err := ns.Boolean(a.AllowMultiple).ToBytes()
		if err != nil {
			return nil, err
		}
		result = append(result, b...)
	case ArgumentResourceOrTag, ArgumentResource:
		b, err := a.Registry.ToBytes()
		if err != nil {
			return nil, err
		}
		result = append(result, b...)
	}

	return result, nil
}

func (a *Argument) FromBytes(data ns.ByteArray) (int, error) {
	var tag ns.VarInt
	offset, err := tag.FromBytes(data)
	if err != nil {
		return 0, fmt.Errorf("argument kind: %w", err)
	}
	a.Kind = ArgumentKind(tag)

	readFlag := func() (byte, error) {
		if offset >= len(data) {
			return 0, errors.New("argument: missing min/max flag byte")
		}
		b := data[offset]
		offset++
		return b, nil
	}

	switch a.Kind {
	case ArgumentFloat:
		flag, err := readFlag()
		if err != nil {
			return 0, err
		}
		a.Range.HasMin, a.Range.HasMax = flag&0x01 != 0, flag&0x02 != 0
		if a.Range.HasMin {
			var v ns.Float
			n, err := v.FromBytes(data[offset:])
			if err != nil {
				return 0, err
			}
			a.Range.Min = float64(v)
			offset += n
		}
		if a.Range.HasMax {
			var v ns.Float
			n, err := v.FromBytes(data[offset:])
			if err != nil {
				return 0, err
			}
			a.Range.Max = float64(v)
			offset += n
		}
	case ArgumentDouble:
		flag, err := readFlag()
		if err != nil {
			return 0, err
		}
		a.Range.HasMin, a.Range.HasMax = flag&0x01 != 0, flag&0x02 != 0
		if a.Range.HasMin {
			var v ns.Double
			n, err := v.FromBytes(data[offset:])
			if err != nil {
				return 0, err
			}
			a.Range.Min = float64(v)
			offset += n
		}
		if a.Range.HasMax {
			var v ns.Double
			n, err := v.FromBytes(data[offset:])
			if err != nil {
				return 0, err
			}
			a.Range.Max = float64(v)
			offset += n
		}
	case ArgumentInteger:
		flag, err := readFlag()
		if err != nil {
			return 0, err
		}
		a.Range.HasMin, a.Range.HasMax = flag&0x01 != 0, flag&0x02 != 0
		if a.Range.HasMin {
			var v ns.Int
			n, err := v.FromBytes(data[offset:])
			if err != nil {
				return 0, err
			}
			a.Range.Min = float64(v)
			offset += n
		}
		if a.Range.HasMax {
			var v ns.Int
			n, err := v.FromBytes(data[offset:])
			if err != nil {
				return 0, err
			}
			a.Range.Max = float64(v)
			offset += n
		}
	case ArgumentLong:
		flag, err := readFlag()
		if err != nil {
			return 0, err
		}
		a.Range.HasMin, a.Range.HasMax = flag&0x01 != 0, flag&0x02 != 0
		if a.Range.HasMin {
			var v ns.Long
			n, err := v.FromBytes(data[offset:])
			if err != nil {
				return 0, err
			}
			a.Range.Min = float64(v)
			offset += n
		}
		if a.Range.HasMax {
			var v ns.Long
			n, err := v.FromBytes(data[offset:])
			if err != nil {
				return 0, err
			}
			a.Range.Max = float64(v)
			offset += n
		}
	case ArgumentString:
		var st StringType
		n, err := st.FromBytes(data[offset:])
		if err != nil {
			return 0, err
		}
		a.StringType = st
		offset += n
	case ArgumentEntity:
		flag, err := readFlag()
		if err != nil {
			return 0, err
		}
		a.Entity = EntityFlags{Single: flag&0x01 != 0, PlayersOnly: flag&0x02 != 0}
	case ArgumentScoreHolder:
		var b ns.Boolean
		n, err := b.FromBytes(data[offset:])
		if err != nil {
			return 0, err
		}
		a.AllowMultiple = bool(b)
		offset += n
	case ArgumentResourceOrTag, ArgumentResource:
		var id ns.Identifier
		n, err := id.FromBytes(data[offset:])
		if err != nil {
			return 0, err
		}
		a.Registry = id
		offset += n
	}

	return offset, nil
}

// Command is one node of the command graph: its own flags, the indices of
// its children within the enclosing Declare Commands packet's node list, an
// optional redirect target, and — depending on NodeKind — a name and/or
// parser.
type Command struct {
	Flags       byte
	Children    []int32
	Redirect    int32
	HasRedirect bool

	// Name is the node's literal text (NodeLiteral) or argument name
	// (NodeArgument); unused for NodeRoot.
	Name string
	// Argument is only meaningful when Kind() is NodeArgument.
	Argument Argument
	// SuggestionsType is the optional suggestions-provider resource
	// location, present iff flags bit 0x10 is set.
	SuggestionsType    ns.Identifier
	HasSuggestionsType bool
}

// Kind extracts the node's type from the low two bits of Flags.
func (c Command) Kind() NodeKind {
	return NodeKind(c.Flags & flagNodeKindMask)
}

// Executable reports whether reaching this node is itself a valid command.
func (c Command) Executable() bool {
	return c.Flags&flagExecutable != 0
}

// NewRootCommand builds the root node every command graph starts from,
// pointing at children by their index in the enclosing packet's node list.
func NewRootCommand(children ...int32) Command {
	return Command{Flags: byte(NodeRoot), Children: children}
}

// NewLiteralCommand builds a literal node (e.g. "teleport"). executable
// marks whether the literal alone, with no further arguments, is a valid
// command.
func NewLiteralCommand(name string, executable bool, children ...int32) Command {
	flags := byte(NodeLiteral)
	if executable {
		flags |= flagExecutable
	}
	return Command{Flags: flags, Children: children, Name: name}
}

// NewArgumentCommand builds an argument node (e.g. a player name or a
// coordinate) parsed by arg.
func NewArgumentCommand(name string, arg Argument, executable bool, children ...int32) Command {
	flags := byte(NodeArgument)
	if executable {
		flags |= flagExecutable
	}
	return Command{Flags: flags, Children: children, Name: name, Argument: arg}
}

// WithRedirect marks c as redirecting to the node at index target instead of
// carrying its own children, returning the updated value.
func (c Command) WithRedirect(target int32) Command {
	c.Flags |= flagHasRedirect
	c.Redirect = target
	c.HasRedirect = true
	return c
}

// WithSuggestionsType attaches a custom suggestions provider (e.g.
// "minecraft:ask_server") to an argument node, returning the updated value.
func (c Command) WithSuggestionsType(id ns.Identifier) Command {
	c.Flags |= flagHasSuggestionsLoc
	c.SuggestionsType = id
	c.HasSuggestionsType = true
	return c
}

func (c Command) ToBytes() (ns.ByteArray, error) {
	result := ns.ByteArray{c.Flags}

	childCount, err := ns.VarInt(len(c.Children)).ToBytes()
	if err != nil {
		return nil, err
	}
	result = append(result, childCount...)
	for _, child := range c.Children {
		b, err := ns.VarInt(child).ToBytes()
		if err != nil {
			return nil, err
		}
		result = append(result, b...)
	}

	if c.Flags&flagHasRedirect != 0 {
		if !c.HasRedirect {
			return nil, errors.New("command: redirect flag set but no redirect index given")
		}
		b, err := ns.VarInt(c.Redirect).ToBytes()
		if err != nil {
			return nil, err
		}
		result = append(result, b...)
	}

	switch c.Kind() {
	case NodeLiteral:
		b, err := ns.String(c.Name).ToBytes()
		if err != nil {
			return nil, err
		}
		result = append(result, b...)
	case NodeArgument:
		nameBytes, err := ns.String(c.Name).ToBytes()
		if err != nil {
			return nil, err
		}
		result = append(result, nameBytes...)

		argBytes, err := c.Argument.ToBytes()
		if err != nil {
			return nil, err
		}
		result = append(result, argBytes...)

		if c.Flags&flagHasSuggestionsLoc != 0 {
			if !c.HasSuggestionsType {
				return nil, errors.New("command: suggestions flag set but no suggestions type given")
			}
			b, err := c.SuggestionsType.ToBytes()
			if err != nil {
				return nil, err
			}
			result = append(result, b...)
		}
	}

	return result, nil
}

func (c *Command) FromBytes(data ns.ByteArray) (int, error) {
	if len(data) < 1 {
		return 0, errors.New("command: missing flags byte")
	}
	c.Flags = data[0]
	offset := 1

	var childCount ns.VarInt
	n, err := childCount.FromBytes(data[offset:])
	if err != nil {
		return 0, fmt.Errorf("command children count: %w", err)
	}
	offset += n
	if childCount < 0 {
		return 0, errors.New("command: negative children count")
	}

	c.Children = make([]int32, childCount)
	for i := range c.Children {
		var child ns.VarInt
		n, err := child.FromBytes(data[offset:])
		if err != nil {
			return 0, fmt.Errorf("command children[%d]: %w", i, err)
		}
		c.Children[i] = int32(child)
		offset += n
	}

	if c.Flags&flagHasRedirect != 0 {
		var redirect ns.VarInt
		n, err := redirect.FromBytes(data[offset:])
		if err != nil {
			return 0, fmt.Errorf("command redirect: %w", err)
		}
		c.Redirect = int32(redirect)
		c.HasRedirect = true
		offset += n
	}

	switch c.Kind() {
	case NodeLiteral:
		var name ns.String
		n, err := name.FromBytes(data[offset:])
		if err != nil {
			return 0, fmt.Errorf("command literal name: %w", err)
		}
		c.Name = string(name)
		offset += n
	case NodeArgument:
		var name ns.String
		n, err := name.FromBytes(data[offset:])
		if err != nil {
			return 0, fmt.Errorf("command argument name: %w", err)
		}
		c.Name = string(name)
		offset += n

		n, err = c.Argument.FromBytes(data[offset:])
		if err != nil {
			return 0, fmt.Errorf("command argument: %w", err)
		}
		offset += n

		if c.Flags&flagHasSuggestionsLoc != 0 {
			var loc ns.Identifier
			n, err := loc.FromBytes(data[offset:])
			if err != nil {
				return 0, fmt.Errorf("command suggestions type: %w", err)
			}
			c.SuggestionsType = loc
			c.HasSuggestionsType = true
			offset += n
		}
	case NodeRoot:
		// no payload beyond flags/children/redirect
	default:
		return 0, fmt.Errorf("command: flags & 3 == %d names no known node kind", c.Flags&flagNodeKindMask)
	}

	return offset, nil
}
