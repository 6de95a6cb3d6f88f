package world

import (
	"fmt"

	ns "github.com/go-mclib/server/net_structures"
)

// ChunkSection is one 16x16x16 vertical slice of a chunk: a block-state
// palette, a biome palette, and a running count of non-air blocks used to
// skip empty sections during lighting and rendering.
type ChunkSection struct {
	NonEmptyBlockCount uint16
	States             *PaletteContainer
	Biomes             *PaletteContainer
}

// NewEmptyChunkSection builds a section with every block set to airID and
// every biome set to plainsBiomeID.
func NewEmptyChunkSection(airID, plainsBiomeID int) *ChunkSection {
	return &ChunkSection{
		States: NewSingleValuePaletteContainer(SectionStrategy, airID),
		Biomes: NewSingleValuePaletteContainer(BiomeStrategy, plainsBiomeID),
	}
}

// encodePaletteContainer writes a container in the wire form chunk.rs
// decodes: a one-byte bit width, the palette body (absent for direct
// containers), then the raw packed words as a VarInt length followed by
// that many big-endian longs.
func encodePaletteContainer(p *PaletteContainer) (ns.ByteArray, error) {
	out := ns.ByteArray{byte(p.Bits())}

	switch {
	case p.storage == nil:
		single, err := ns.VarInt(p.single).ToBytes()
		if err != nil {
			return nil, err
		}
		out = append(out, single...)
	case p.indirect != nil:
		entries, err := ns.VarInt(len(p.indirect)).ToBytes()
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
		for _, id := range p.indirect {
			idBytes, err := ns.VarInt(id).ToBytes()
			if err != nil {
				return nil, err
			}
			out = append(out, idBytes...)
		}
	}

	raw := p.storage
	var words []uint64
	if raw != nil {
		words = raw.Raw()
	}
	count, err := ns.VarInt(len(words)).ToBytes()
	if err != nil {
		return nil, err
	}
	out = append(out, count...)
	for _, w := range words {
		long := ns.Long(int64(w))
		longBytes, err := long.ToBytes()
		if err != nil {
			return nil, err
		}
		out = append(out, longBytes...)
	}

	return out, nil
}

func decodePaletteContainer(strategy Strategy, data ns.ByteArray) (*PaletteContainer, int, error) {
	if len(data) < 1 {
		return nil, 0, fmt.Errorf("world: palette container truncated before bit width byte")
	}
	width := int(data[0])
	read := 1

	var single int
	var indirect []int

	switch {
	case width == 0:
		var v ns.VarInt
		n, err := v.FromBytes(data[read:])
		if err != nil {
			return nil, 0, fmt.Errorf("world: failed to read single-value palette entry: %w", err)
		}
		single = int(v)
		read += n
	case width <= strategy.indirectMax:
		var count ns.VarInt
		n, err := count.FromBytes(data[read:])
		if err != nil {
			return nil, 0, fmt.Errorf("world: failed to read palette entry count: %w", err)
		}
		read += n
		indirect = make([]int, count)
		for i := range indirect {
			var id ns.VarInt
			n, err := id.FromBytes(data[read:])
			if err != nil {
				return nil, 0, fmt.Errorf("world: failed to read palette entry %d: %w", i, err)
			}
			read += n
			indirect[i] = int(id)
		}
	}

	var wordCount ns.VarInt
	n, err := wordCount.FromBytes(data[read:])
	if err != nil {
		return nil, 0, fmt.Errorf("world: failed to read bit storage word count: %w", err)
	}
	read += n

	words := make([]uint64, wordCount)
	for i := range words {
		var long ns.Long
		n, err := long.FromBytes(data[read:])
		if err != nil {
			return nil, 0, fmt.Errorf("world: failed to read bit storage word %d: %w", i, err)
		}
		read += n
		words[i] = uint64(long)
	}

	p := &PaletteContainer{strategy: strategy, single: single, indirect: indirect}
	if width != 0 {
		storage, err := NewBitStorageFromRaw(strategy.Count(), width, words)
		if err != nil {
			return nil, 0, err
		}
		p.storage = storage
	}

	return p, read, nil
}

// ToBytes encodes the section as non_empty_block_count:u16 followed by the
// block-state container and then the biome container.
func (s *ChunkSection) ToBytes() (ns.ByteArray, error) {
	count := ns.Short(int16(s.NonEmptyBlockCount))
	out, err := count.ToBytes()
	if err != nil {
		return nil, err
	}

	states, err := encodePaletteContainer(s.States)
	if err != nil {
		return nil, fmt.Errorf("world: failed to encode block states: %w", err)
	}
	out = append(out, states...)

	biomes, err := encodePaletteContainer(s.Biomes)
	if err != nil {
		return nil, fmt.Errorf("world: failed to encode biomes: %w", err)
	}
	out = append(out, biomes...)

	return out, nil
}

// DecodeChunkSection reads one section from data, returning the bytes
// consumed so the caller can advance to the next section in the slab.
func DecodeChunkSection(data ns.ByteArray) (*ChunkSection, int, error) {
	var count ns.Short
	read, err := count.FromBytes(data)
	if err != nil {
		return nil, 0, fmt.Errorf("world: failed to read non_empty_block_count: %w", err)
	}

	states, n, err := decodePaletteContainer(SectionStrategy, data[read:])
	if err != nil {
		return nil, 0, err
	}
	read += n

	biomes, n, err := decodePaletteContainer(BiomeStrategy, data[read:])
	if err != nil {
		return nil, 0, err
	}
	read += n

	return &ChunkSection{
		NonEmptyBlockCount: uint16(count),
		States:             states,
		Biomes:             biomes,
	}, read, nil
}
