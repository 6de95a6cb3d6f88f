package world

import "fmt"

// Strategy fixes the geometry and bit-width escalation a PaletteContainer
// follows. Section containers hold one 16x16x16 volume of block states;
// Biome containers hold one 4x4x4 volume of biome ids.
type Strategy struct {
	sizeBits    int // local index is ((y<<sizeBits|z)<<sizeBits)|x
	indirectMin int // first non-zero bit width used once a second value appears
	indirectMax int // widest indirect (palette-backed) width before falling back to direct
	directBits  int // direct (palette-less, global-id) width
}

// SectionStrategy covers block state storage inside a chunk section: 16
// entries per axis, escalating 0 -> 4 -> 5..8 -> 15 bits.
var SectionStrategy = Strategy{sizeBits: 4, indirectMin: 4, indirectMax: 8, directBits: 15}

// BiomeStrategy covers biome storage inside a chunk section: 4 entries per
// axis, escalating 0 -> n -> 6 bits.
var BiomeStrategy = Strategy{sizeBits: 2, indirectMin: 1, indirectMax: 3, directBits: 6}

// Count is the number of entries a volume under this strategy holds.
func (s Strategy) Count() int {
	n := 1 << uint(s.sizeBits)
	return n * n * n
}

// Index maps local (x, y, z) coordinates to a flat storage index.
func (s Strategy) Index(x, y, z int) int {
	bits := uint(s.sizeBits)
	return (((y << bits) | z) << bits) | x
}

// PaletteContainer is a palette-compressed fixed-size array of ids: either
// a single repeated value, an indirect palette backed by a narrow
// BitStorage, or a direct BitStorage holding global ids with no palette.
type PaletteContainer struct {
	strategy Strategy
	single   int
	indirect []int // palette index -> global id; nil when direct or single
	storage  *BitStorage
}

// NewSingleValuePaletteContainer builds a container where every entry is id.
func NewSingleValuePaletteContainer(strategy Strategy, id int) *PaletteContainer {
	return &PaletteContainer{strategy: strategy, single: id}
}

// Bits reports the container's current encoding width: 0 for single-value,
// otherwise the BitStorage's width.
func (p *PaletteContainer) Bits() int {
	if p.storage == nil {
		return 0
	}
	return p.storage.Bits()
}

// IsDirect reports whether the container has escalated past its indirect
// ceiling into a palette-less, global-id direct storage.
func (p *PaletteContainer) IsDirect() bool {
	return p.storage != nil && p.indirect == nil
}

// Get returns the global id stored at local index i.
func (p *PaletteContainer) Get(i int) (int, error) {
	if i < 0 || i >= p.strategy.Count() {
		return 0, fmt.Errorf("world: palette index %d out of bounds [0,%d)", i, p.strategy.Count())
	}
	if p.storage == nil {
		return p.single, nil
	}
	paletteIndex, err := p.storage.Get(i)
	if err != nil {
		return 0, err
	}
	if p.indirect == nil {
		return paletteIndex, nil
	}
	if paletteIndex < 0 || paletteIndex >= len(p.indirect) {
		return 0, fmt.Errorf("world: corrupt palette entry %d (palette has %d values)", paletteIndex, len(p.indirect))
	}
	return p.indirect[paletteIndex], nil
}

// idFor finds id's existing palette index, or reports that growth is
// needed by returning ok=false alongside the palette's size after adding it.
func (p *PaletteContainer) idFor(id int) (index int, ok bool, newSize int) {
	if p.storage == nil {
		if id == p.single {
			return 0, true, 0
		}
		return 0, false, 2
	}
	if p.indirect == nil {
		// direct storage: the global id is its own index, and directBits is
		// sized to hold any valid id, so no growth is ever needed here.
		return id, true, 0
	}
	for i, v := range p.indirect {
		if v == id {
			return i, true, 0
		}
	}
	return 0, false, len(p.indirect) + 1
}

// Set stores id at local index i, growing the palette or escalating its bit
// width first if id has not been seen before. It returns the id previously
// stored at i.
func (p *PaletteContainer) Set(i, id int) (int, error) {
	if i < 0 || i >= p.strategy.Count() {
		return 0, fmt.Errorf("world: palette index %d out of bounds [0,%d)", i, p.strategy.Count())
	}

	index, ok, newSize := p.idFor(id)
	if !ok {
		if err := p.grow(newSize, id); err != nil {
			return 0, err
		}
		index, ok, _ = p.idFor(id)
		if !ok {
			return 0, fmt.Errorf("world: palette growth did not register id %d", id)
		}
	}

	if p.storage == nil {
		previous := p.single
		p.single = id
		return previous, nil
	}

	previousIndex, err := p.storage.Set(i, index)
	if err != nil {
		return 0, err
	}
	if p.indirect == nil {
		return previousIndex, nil
	}
	return p.indirect[previousIndex], nil
}

// grow escalates the container to accommodate a palette of newSize entries,
// translating every existing index through its old global id into the new
// layout, then appends freshID.
func (p *PaletteContainer) grow(newSize, freshID int) error {
	width := bitsNeeded(newSize)
	if width < p.strategy.indirectMin {
		width = p.strategy.indirectMin
	}

	direct := width > p.strategy.indirectMax
	if direct {
		width = p.strategy.directBits
	}

	count := p.strategy.Count()
	oldGet := func(i int) (int, error) { return p.Get(i) }

	newStorage := NewBitStorage(count, width)

	var newIndirect []int
	if !direct {
		newIndirect = make([]int, 0, newSize)
		lookup := make(map[int]int, newSize)
		indexOf := func(id int) int {
			if idx, found := lookup[id]; found {
				return idx
			}
			newIndirect = append(newIndirect, id)
			lookup[id] = len(newIndirect) - 1
			return len(newIndirect) - 1
		}
		for i := 0; i < count; i++ {
			id, err := oldGet(i)
			if err != nil {
				return err
			}
			if _, err := newStorage.Set(i, indexOf(id)); err != nil {
				return err
			}
		}
		indexOf(freshID)
	} else {
		for i := 0; i < count; i++ {
			id, err := oldGet(i)
			if err != nil {
				return err
			}
			if _, err := newStorage.Set(i, id); err != nil {
				return err
			}
		}
	}

	p.storage = newStorage
	p.indirect = newIndirect
	return nil
}

// SetPlane rewrites every entry at a fixed y across all (x, z) to id. The
// palette growth mapping for id is resolved once up front, then every
// position in the plane is written directly against that resolved index,
// instead of repeating the id-for/grow lookup at each of the plane's
// positions.
func (p *PaletteContainer) SetPlane(y, id int) error {
	index, ok, newSize := p.idFor(id)
	if !ok {
		if err := p.grow(newSize, id); err != nil {
			return err
		}
		index, ok, _ = p.idFor(id)
		if !ok {
			return fmt.Errorf("world: palette growth did not register id %d", id)
		}
	}

	n := 1 << uint(p.strategy.sizeBits)
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			i := p.strategy.Index(x, y, z)
			if p.storage == nil {
				p.single = id
				continue
			}
			if _, err := p.storage.Set(i, index); err != nil {
				return err
			}
		}
	}
	return nil
}
