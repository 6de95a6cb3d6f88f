package world

import "github.com/go-mclib/server/nbt"

// HeightMaps tracks, per (x, z) column, the y of the highest non-air block
// plus one. Two variants are kept, matching what the client renders with:
// WorldSurface (any non-air block) and MotionBlocking (any block a player
// collides with; here treated identically to WorldSurface, since this
// server has no fluid/foliage distinction to make between them).
type HeightMaps struct {
	WorldSurface   *BitStorage
	MotionBlocking *BitStorage
}

// NewHeightMaps builds an all-zero heightmap pair sized for worldHeight
// vertical blocks, using the narrowest bit width that can represent every
// possible height value.
func NewHeightMaps(worldHeight int) *HeightMaps {
	width := bitsNeeded(worldHeight + 1)
	return &HeightMaps{
		WorldSurface:   NewBitStorage(256, width),
		MotionBlocking: NewBitStorage(256, width),
	}
}

// Update records that the column at local (x, z) now has its highest
// non-air block at height y (already +1'd by the caller), for both tracked
// maps.
func (h *HeightMaps) Update(x, z, height int) error {
	i := (z << 4) | x
	if _, err := h.WorldSurface.Set(i, height); err != nil {
		return err
	}
	if _, err := h.MotionBlocking.Set(i, height); err != nil {
		return err
	}
	return nil
}

// Get returns the recorded WorldSurface height at local (x, z).
func (h *HeightMaps) Get(x, z int) (int, error) {
	return h.WorldSurface.Get((z << 4) | x)
}

func longArrayFromStorage(b *BitStorage) nbt.LongArray {
	raw := b.Raw()
	out := make(nbt.LongArray, len(raw))
	for i, w := range raw {
		out[i] = int64(w)
	}
	return out
}

// Compound renders the heightmap pair as the compound tag a chunk packet
// embeds: two long-array children, WORLD_SURFACE and MOTION_BLOCKING.
func (h *HeightMaps) Compound() nbt.Compound {
	return nbt.Compound{
		"WORLD_SURFACE":   longArrayFromStorage(h.WorldSurface),
		"MOTION_BLOCKING": longArrayFromStorage(h.MotionBlocking),
	}
}

// HeightMapsFromCompound rehydrates a heightmap pair received over the
// wire back into BitStorage form, sized for worldHeight vertical blocks.
func HeightMapsFromCompound(c nbt.Compound, worldHeight int) (*HeightMaps, error) {
	width := bitsNeeded(worldHeight + 1)

	surface, err := bitStorageFromLongArray(c.GetLongArray("WORLD_SURFACE"), 256, width)
	if err != nil {
		return nil, err
	}
	motion, err := bitStorageFromLongArray(c.GetLongArray("MOTION_BLOCKING"), 256, width)
	if err != nil {
		return nil, err
	}

	return &HeightMaps{WorldSurface: surface, MotionBlocking: motion}, nil
}

func bitStorageFromLongArray(longs []int64, size, width int) (*BitStorage, error) {
	raw := make([]uint64, len(longs))
	for i, l := range longs {
		raw[i] = uint64(l)
	}
	return NewBitStorageFromRaw(size, width, raw)
}
