package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaletteContainerStartsSingleValue(t *testing.T) {
	p := NewSingleValuePaletteContainer(SectionStrategy, 7)

	v, err := p.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 0, p.Bits())
}

func TestPaletteContainerGrowsThroughIndirectToDirect(t *testing.T) {
	p := NewSingleValuePaletteContainer(SectionStrategy, 0)

	_, err := p.Set(0, 1)
	require.NoError(t, err)
	assert.Equal(t, SectionStrategy.indirectMin, p.Bits())
	assert.False(t, p.IsDirect())

	// push the indirect palette past its ceiling: 2^8 = 256 distinct ids
	for id := 2; id <= 300; id++ {
		_, err := p.Set(id%SectionStrategy.Count(), id)
		require.NoError(t, err)
	}
	assert.True(t, p.IsDirect())
	assert.Equal(t, SectionStrategy.directBits, p.Bits())
}

func TestPaletteContainerPreservesValuesAcrossGrowth(t *testing.T) {
	p := NewSingleValuePaletteContainer(SectionStrategy, 5)

	positions := []int{0, 10, 100, 1000, 4000}
	ids := []int{5, 9, 20, 400, 70}

	for i, pos := range positions {
		_, err := p.Set(pos, ids[i])
		require.NoError(t, err)
	}

	for i, pos := range positions {
		v, err := p.Get(pos)
		require.NoError(t, err)
		assert.Equal(t, ids[i], v, "position %d", pos)
	}

	// every position not explicitly set still reads back the original
	// single value, proving growth doesn't disturb untouched entries.
	v, err := p.Get(2000)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestPaletteContainerSetPlane(t *testing.T) {
	p := NewSingleValuePaletteContainer(SectionStrategy, 0)

	require.NoError(t, p.SetPlane(3, 42))

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			v, err := p.Get(SectionStrategy.Index(x, 3, z))
			require.NoError(t, err)
			assert.Equal(t, 42, v)
		}
	}

	v, err := p.Get(SectionStrategy.Index(0, 4, 0))
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestBiomeStrategyEscalation(t *testing.T) {
	p := NewSingleValuePaletteContainer(BiomeStrategy, 0)

	_, err := p.Set(0, 1)
	require.NoError(t, err)
	assert.False(t, p.IsDirect())

	for id := 2; id <= 20; id++ {
		_, err := p.Set(id%BiomeStrategy.Count(), id)
		require.NoError(t, err)
	}
	assert.True(t, p.IsDirect())
	assert.Equal(t, BiomeStrategy.directBits, p.Bits())
}
