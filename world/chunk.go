package world

import (
	"fmt"

	"github.com/go-mclib/server/nbt"
	ns "github.com/go-mclib/server/net_structures"
)

// SectionsPerChunk is the fixed number of 16-block-tall sections stacked to
// form a chunk column.
const SectionsPerChunk = 24

// Chunk is one 16x(16*SectionsPerChunk)x16 column of the world.
type Chunk struct {
	ChunkX, ChunkZ int32
	MinHeight      int // y of the lowest block in section 0
	WorldHeight    int // total vertical block count, SectionsPerChunk*16
	Sections       [SectionsPerChunk]*ChunkSection
	HeightMaps     *HeightMaps
	BlockEntities  []BlockEntityInfo
}

// BlockEntityInfo is one tile entity's position, type, and NBT payload. Data
// holds whatever github.com/Tnze/go-mc/nbt decodes a compound tag into
// (typically map[string]any), matching net_structures.NBT's own convention.
type BlockEntityInfo struct {
	LocalX, LocalZ int
	Y              int
	BlockType      int
	Data           any
}

// NewChunk builds an empty chunk at (chunkX, chunkZ), every section filled
// with airID and every biome with plainsBiomeID.
func NewChunk(chunkX, chunkZ int32, minHeight, worldHeight, airID, plainsBiomeID int) *Chunk {
	c := &Chunk{
		ChunkX:      chunkX,
		ChunkZ:      chunkZ,
		MinHeight:   minHeight,
		WorldHeight: worldHeight,
		HeightMaps:  NewHeightMaps(worldHeight),
	}
	for i := range c.Sections {
		c.Sections[i] = NewEmptyChunkSection(airID, plainsBiomeID)
	}
	return c
}

func (c *Chunk) sectionIndex(y int) (int, error) {
	idx := (y - c.MinHeight) / 16
	if idx < 0 || idx >= SectionsPerChunk {
		return 0, fmt.Errorf("world: y=%d is outside this chunk's vertical range", y)
	}
	return idx, nil
}

// GetBlock returns the global block state id at world coordinates
// (x, y, z); x and z are column-relative (0..15).
func (c *Chunk) GetBlock(x, y, z int) (int, error) {
	idx, err := c.sectionIndex(y)
	if err != nil {
		return 0, err
	}
	local := SectionStrategy.Index(x&15, y&15, z&15)
	return c.Sections[idx].States.Get(local)
}

// SetBlock places block id at world coordinates (x, y, z), updating the
// section's non-empty count and the column heightmap when the block
// replaces a different id. airID identifies which state counts as empty.
func (c *Chunk) SetBlock(x, y, z, id, airID int) error {
	idx, err := c.sectionIndex(y)
	if err != nil {
		return err
	}
	section := c.Sections[idx]
	local := SectionStrategy.Index(x&15, y&15, z&15)

	previous, err := section.States.Set(local, id)
	if err != nil {
		return err
	}
	if previous == id {
		return nil
	}

	if previous == airID && id != airID {
		section.NonEmptyBlockCount++
	} else if previous != airID && id == airID {
		if section.NonEmptyBlockCount > 0 {
			section.NonEmptyBlockCount--
		}
	}

	if id != airID {
		relative := y + 1 - c.MinHeight // heightmap entries are unsigned, stored relative to MinHeight
		current, err := c.HeightMaps.Get(x&15, z&15)
		if err != nil {
			return err
		}
		if relative > current {
			if err := c.HeightMaps.Update(x&15, z&15, relative); err != nil {
				return err
			}
		}
	}

	return nil
}

// SurfaceHeight returns the world-space y of the highest non-air block in
// the column at local (x, z), per the WorldSurface heightmap.
func (c *Chunk) SurfaceHeight(x, z int) (int, error) {
	relative, err := c.HeightMaps.Get(x&15, z&15)
	if err != nil {
		return 0, err
	}
	return relative + c.MinHeight - 1, nil
}

// ToChunkData encodes the chunk into the wire-level envelope a Chunk Data
// and Update Light packet carries: network NBT heightmaps, the 24 sections
// packed contiguously, and the block entity list.
func (c *Chunk) ToChunkData() (ns.ChunkData, error) {
	heightmapBytes, err := nbt.EncodeNetwork(c.HeightMaps.Compound())
	if err != nil {
		return ns.ChunkData{}, fmt.Errorf("world: failed to encode heightmaps: %w", err)
	}

	var sectionData ns.ByteArray
	for i, section := range c.Sections {
		encoded, err := section.ToBytes()
		if err != nil {
			return ns.ChunkData{}, fmt.Errorf("world: failed to encode section %d: %w", i, err)
		}
		sectionData = append(sectionData, encoded...)
	}

	blockEntities := make(ns.PrefixedArray[ns.BlockEntity], len(c.BlockEntities))
	for i, be := range c.BlockEntities {
		blockEntities[i] = ns.BlockEntity{
			PackedXZ: ns.UnsignedByte((be.LocalX&15)<<4 | (be.LocalZ & 15)),
			Y:        ns.Short(int16(be.Y)),
			Type:     ns.VarInt(be.BlockType),
			Data:     ns.NewNBT(be.Data),
		}
	}

	return ns.ChunkData{
		ChunkX:        ns.Int(c.ChunkX),
		ChunkZ:        ns.Int(c.ChunkZ),
		Heightmaps:    ns.PrefixedArray[ns.ByteArray]{ns.ByteArray(heightmapBytes)},
		Data:          ns.PrefixedByteArray(sectionData),
		BlockEntities: blockEntities,
	}, nil
}

// ChunkFromChunkData decodes a Chunk Data envelope — including the chunk_x/
// chunk_z coordinates ToChunkData wrote onto the wire — back into sections,
// rehydrating the heightmap long-arrays into BitStorage form.
func ChunkFromChunkData(minHeight, worldHeight int, data ns.ChunkData) (*Chunk, error) {
	if len(data.Heightmaps) == 0 {
		return nil, fmt.Errorf("world: chunk data carries no heightmap document")
	}
	tag, _, err := nbt.DecodeNetwork([]byte(data.Heightmaps[0]))
	if err != nil {
		return nil, fmt.Errorf("world: failed to decode heightmaps: %w", err)
	}
	compound, ok := tag.(nbt.Compound)
	if !ok {
		return nil, fmt.Errorf("world: heightmap document root is not a compound")
	}
	heightMaps, err := HeightMapsFromCompound(compound, worldHeight)
	if err != nil {
		return nil, err
	}

	remaining := ns.ByteArray(data.Data)
	var sections [SectionsPerChunk]*ChunkSection
	for i := 0; i < SectionsPerChunk; i++ {
		section, n, err := DecodeChunkSection(remaining)
		if err != nil {
			return nil, fmt.Errorf("world: failed to decode section %d: %w", i, err)
		}
		sections[i] = section
		remaining = remaining[n:]
	}

	blockEntities := make([]BlockEntityInfo, len(data.BlockEntities))
	for i, be := range data.BlockEntities {
		blockEntities[i] = BlockEntityInfo{
			LocalX:    int(be.PackedXZ >> 4),
			LocalZ:    int(be.PackedXZ & 0x0F),
			Y:         int(be.Y),
			BlockType: int(be.Type),
			Data:      be.Data.Data,
		}
	}

	return &Chunk{
		ChunkX:        int32(data.ChunkX),
		ChunkZ:        int32(data.ChunkZ),
		MinHeight:     minHeight,
		WorldHeight:   worldHeight,
		Sections:      sections,
		HeightMaps:    heightMaps,
		BlockEntities: blockEntities,
	}, nil
}
