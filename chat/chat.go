package chat

import (
	"encoding/json"
	"fmt"
)

// kind discriminates which of Chat's variants a value holds. It is
// determined by which fields a constructor populates, and on unmarshal by
// which keys are present in the JSON object (or whether it's a bare string
// or array).
type kind int

const (
	kindLiteral kind = iota
	kindArray
	kindText
	kindTranslatable
	kindScore
	kindSelector
	kindKeybind
	kindNbtContents
)

// Score names a scoreboard objective a Score component reads its value
// from at render time.
type Score struct {
	Name      string
	Objective string
}

// DataSourceKind names where an NbtContents component reads its tag data
// from.
type DataSourceKind int

const (
	DataSourceBlock DataSourceKind = iota
	DataSourceEntity
	DataSourceStorage
)

// DataSource is the flattened block/entity/storage selector an NbtContents
// component carries; exactly one of its forms is active, named by Kind.
type DataSource struct {
	Kind  DataSourceKind
	Value string
}

// NewBlockDataSource reads NBT from the block at the given coordinates.
func NewBlockDataSource(coordinates string) DataSource {
	return DataSource{Kind: DataSourceBlock, Value: coordinates}
}

// NewEntityDataSource reads NBT from the entity matched by the given
// selector.
func NewEntityDataSource(selector string) DataSource {
	return DataSource{Kind: DataSourceEntity, Value: selector}
}

// NewStorageDataSource reads NBT from the named command storage.
func NewStorageDataSource(storage string) DataSource {
	return DataSource{Kind: DataSourceStorage, Value: storage}
}

// Chat is a chat component: a literal string, an array of components, or
// one of the structured variants (Text, Translatable, Score, Selector,
// Keybind, NbtContents), each carrying a shared style and child list.
// Its zero value is the empty literal string.
type Chat struct {
	k kind

	literal string
	array   []Chat

	text         string
	translatable string
	with         []Chat
	score        Score
	selector     string
	separator    *Chat
	keybind      string
	nbt          string
	interpret    bool
	dataSource   DataSource

	extra []Chat
	style Style
}

// Literal builds a bare-string component: no style, no children, just text.
func Literal(s string) Chat {
	return Chat{k: kindLiteral, literal: s}
}

// Array builds a component that is itself a list of components, rendered
// concatenated with no separator.
func Array(items []Chat) Chat {
	return Chat{k: kindArray, array: items}
}

// Text builds a component whose content is the literal string s, styled
// and extended like any structured variant.
func Text(s string) Chat {
	return Chat{k: kindText, text: s}
}

// Translatable builds a component resolved client-side from a translation
// key, with positional arguments substituted into the translated string.
func Translatable(key string, with []Chat) Chat {
	return Chat{k: kindTranslatable, translatable: key, with: with}
}

// ScoreComponent builds a component that renders a player's score on the
// named objective.
func ScoreComponent(score Score) Chat {
	return Chat{k: kindScore, score: score}
}

// Selector builds a component that renders the name(s) of every entity
// matching a target selector, joined by separator if given.
func Selector(selector string, separator *Chat) Chat {
	return Chat{k: kindSelector, selector: selector, separator: separator}
}

// Keybind builds a component that renders the client's current binding for
// the named keybind action.
func Keybind(keybind string) Chat {
	return Chat{k: kindKeybind, keybind: keybind}
}

// NbtContents builds a component that renders NBT tag data read from path
// within source, optionally interpreting the result as chat JSON itself.
func NbtContents(path string, interpret bool, source DataSource) Chat {
	return Chat{k: kindNbtContents, nbt: path, interpret: interpret, dataSource: source}
}

// hasBase reports whether this variant carries a style and extra list; the
// Literal and Array variants don't.
func (c *Chat) hasBase() bool {
	return c.k != kindLiteral && c.k != kindArray
}

// SetExtra replaces this component's child list. A no-op on Literal and
// Array, which have no base to carry one.
func (c *Chat) SetExtra(extra []Chat) {
	if !c.hasBase() {
		return
	}
	c.extra = extra
}

// PushExtra appends a single child to this component's list.
func (c *Chat) PushExtra(extra Chat) {
	if !c.hasBase() {
		return
	}
	c.extra = append(c.extra, extra)
}

// AppendExtra appends every component in extra to this component's list.
func (c *Chat) AppendExtra(extra []Chat) {
	if !c.hasBase() {
		return
	}
	c.extra = append(c.extra, extra...)
}

// ClearExtra empties this component's child list.
func (c *Chat) ClearExtra() {
	if !c.hasBase() {
		return
	}
	c.extra = nil
}

// ModifyStyle calls fn with this component's style for in-place editing. A
// no-op on Literal and Array.
func (c *Chat) ModifyStyle(fn func(*Style)) {
	if !c.hasBase() {
		return
	}
	fn(&c.style)
}

// baseFields writes this component's extra and style into m, the JSON
// object under construction.
func (c *Chat) baseFields(m map[string]any) {
	if len(c.extra) > 0 {
		m["extra"] = c.extra
	}
	c.style.fields(m)
}

func (c Chat) MarshalJSON() ([]byte, error) {
	switch c.k {
	case kindLiteral:
		return json.Marshal(c.literal)
	case kindArray:
		return json.Marshal(c.array)
	case kindText:
		m := map[string]any{"text": c.text}
		c.baseFields(m)
		return json.Marshal(m)
	case kindTranslatable:
		m := map[string]any{"translatable": c.translatable}
		if c.with != nil {
			m["with"] = c.with
		}
		c.baseFields(m)
		return json.Marshal(m)
	case kindScore:
		m := map[string]any{
			"score": map[string]any{
				"name":      c.score.Name,
				"objective": c.score.Objective,
			},
		}
		c.baseFields(m)
		return json.Marshal(m)
	case kindSelector:
		m := map[string]any{"selector": c.selector}
		if c.separator != nil {
			m["separator"] = *c.separator
		}
		c.baseFields(m)
		return json.Marshal(m)
	case kindKeybind:
		m := map[string]any{"keybind": c.keybind}
		c.baseFields(m)
		return json.Marshal(m)
	case kindNbtContents:
		m := map[string]any{"nbt": c.nbt, "interpret": c.interpret}
		switch c.dataSource.Kind {
		case DataSourceBlock:
			m["block"] = c.dataSource.Value
		case DataSourceEntity:
			m["entity"] = c.dataSource.Value
		case DataSourceStorage:
			m["storage"] = c.dataSource.Value
		}
		c.baseFields(m)
		return json.Marshal(m)
	default:
		return nil, fmt.Errorf("chat: unknown component kind %d", c.k)
	}
}

func (c *Chat) UnmarshalJSON(data []byte) error {
	var literal string
	if err := json.Unmarshal(data, &literal); err == nil {
		*c = Literal(literal)
		return nil
	}

	var array []Chat
	if err := json.Unmarshal(data, &array); err == nil {
		*c = Array(array)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("chat: component is neither a string, array, nor object: %w", err)
	}

	style, err := parseStyle(raw)
	if err != nil {
		return err
	}

	var extra []Chat
	if v, ok := raw["extra"]; ok {
		if err := json.Unmarshal(v, &extra); err != nil {
			return fmt.Errorf("chat: invalid extra: %w", err)
		}
	}

	switch {
	case has(raw, "text"):
		var text string
		if err := json.Unmarshal(raw["text"], &text); err != nil {
			return fmt.Errorf("chat: invalid text: %w", err)
		}
		*c = Text(text)
	case has(raw, "translatable"):
		var key string
		if err := json.Unmarshal(raw["translatable"], &key); err != nil {
			return fmt.Errorf("chat: invalid translatable: %w", err)
		}
		var with []Chat
		if v, ok := raw["with"]; ok {
			if err := json.Unmarshal(v, &with); err != nil {
				return fmt.Errorf("chat: invalid with: %w", err)
			}
		}
		*c = Translatable(key, with)
	case has(raw, "score"):
		var score Score
		var rawScore struct {
			Name      string `json:"name"`
			Objective string `json:"objective"`
		}
		if err := json.Unmarshal(raw["score"], &rawScore); err != nil {
			return fmt.Errorf("chat: invalid score: %w", err)
		}
		score.Name, score.Objective = rawScore.Name, rawScore.Objective
		*c = ScoreComponent(score)
	case has(raw, "selector"):
		var selector string
		if err := json.Unmarshal(raw["selector"], &selector); err != nil {
			return fmt.Errorf("chat: invalid selector: %w", err)
		}
		var separator *Chat
		if v, ok := raw["separator"]; ok {
			var sep Chat
			if err := json.Unmarshal(v, &sep); err != nil {
				return fmt.Errorf("chat: invalid separator: %w", err)
			}
			separator = &sep
		}
		*c = Selector(selector, separator)
	case has(raw, "keybind"):
		var keybind string
		if err := json.Unmarshal(raw["keybind"], &keybind); err != nil {
			return fmt.Errorf("chat: invalid keybind: %w", err)
		}
		*c = Keybind(keybind)
	case has(raw, "nbt"):
		var path string
		if err := json.Unmarshal(raw["nbt"], &path); err != nil {
			return fmt.Errorf("chat: invalid nbt: %w", err)
		}
		var interpret bool
		if v, ok := raw["interpret"]; ok {
			if err := json.Unmarshal(v, &interpret); err != nil {
				return fmt.Errorf("chat: invalid interpret: %w", err)
			}
		}
		source, err := parseDataSource(raw)
		if err != nil {
			return err
		}
		*c = NbtContents(path, interpret, source)
	default:
		return fmt.Errorf("chat: object carries none of text/translatable/score/selector/keybind/nbt")
	}

	c.extra = extra
	c.style = style
	return nil
}

func has(raw map[string]json.RawMessage, key string) bool {
	_, ok := raw[key]
	return ok
}

func parseDataSource(raw map[string]json.RawMessage) (DataSource, error) {
	if v, ok := raw["block"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return DataSource{}, fmt.Errorf("chat: invalid block data source: %w", err)
		}
		return NewBlockDataSource(s), nil
	}
	if v, ok := raw["entity"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return DataSource{}, fmt.Errorf("chat: invalid entity data source: %w", err)
		}
		return NewEntityDataSource(s), nil
	}
	if v, ok := raw["storage"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return DataSource{}, fmt.Errorf("chat: invalid storage data source: %w", err)
		}
		return NewStorageDataSource(s), nil
	}
	return DataSource{}, fmt.Errorf("chat: nbt component carries no block/entity/storage data source")
}

// PlainText concatenates this component's own literal text with every
// child's, ignoring style, for logging and contexts that can't render rich
// chat. A translatable component contributes its raw translation key.
func (c Chat) PlainText() string {
	var text string
	switch c.k {
	case kindLiteral:
		text = c.literal
	case kindText:
		text = c.text
	case kindTranslatable:
		text = c.translatable
	case kindKeybind:
		text = c.keybind
	case kindSelector:
		text = c.selector
	}

	for _, child := range c.array {
		text += child.PlainText()
	}
	for _, child := range c.extra {
		text += child.PlainText()
	}
	return text
}
