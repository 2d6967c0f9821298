package collision

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridLayout(t *testing.T) {
	g, err := newGrid(NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 11, 0}), 2, 1)
	require.NoError(t, err)

	assert.Equal(t, [MaxDimension]int{5, 5, 0}, g.numCells)
	assert.Equal(t, [MaxDimension]int{7, 7, 0}, g.outer)
	assert.Equal(t, [MaxDimension]int{1, 7, 0}, g.stride)
	assert.InDelta(t, 2.0, g.cellSize[0], 1e-12)
	assert.InDelta(t, 2.2, g.cellSize[1], 1e-12)
	assert.Len(t, g.cells, 49)

	assert.Equal(t, []int{-1, 1, -7, 7}, g.directNeighborOffsets[:4])
	assert.Equal(t, []int{-8, -7, -6, -1, 0, 1, 6, 7, 8}, g.neighborOffsets)
	assert.Equal(t, []int{
		0x5, 0x4, 0x6,
		0x1, 0x0, 0x2,
		0x9, 0x8, 0xa,
	}, g.cellChangeMasks)
}

func TestGridNeighborCount(t *testing.T) {
	for dim, want := range map[int]int{1: 3, 2: 9, 3: 27} {
		g, err := newGrid(NewBox(mgl64.Vec3{}, mgl64.Vec3{8, 8, 8}), dim, 1)
		require.NoError(t, err)
		assert.Len(t, g.neighborOffsets, want)
		assert.Len(t, g.cellChangeMasks, want)
	}
}

func TestGridCellBounds(t *testing.T) {
	g, err := newGrid(NewBox(mgl64.Vec3{-4, 0, 0}, mgl64.Vec3{4, 4, 0}), 2, 1)
	require.NoError(t, err)

	c := g.cellIndex(NewBox(mgl64.Vec3{-4, 0, 0}, mgl64.Vec3{4, 4, 0}), mgl64.Vec3{-3, 3, 0})
	assert.Equal(t, 1+2*6, c)
	assert.Equal(t, mgl64.Vec3{-4, 2, 0}, g.cells[c].bounds.Min)
	assert.Equal(t, mgl64.Vec3{-2, 4, 0}, g.cells[c].bounds.Max)
}

func TestGridCellIndexClamps(t *testing.T) {
	bounds := NewBox(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 0})
	g, err := newGrid(bounds, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, 1+1*7, g.cellIndex(bounds, mgl64.Vec3{-3, -3, 0}))
	assert.Equal(t, 5+5*7, g.cellIndex(bounds, mgl64.Vec3{10, 10, 0}))
	assert.Equal(t, 5+5*7, g.cellIndex(bounds, mgl64.Vec3{42, 42, 0}))
}

func TestGridTooSmall(t *testing.T) {
	_, err := newGrid(NewBox(mgl64.Vec3{}, mgl64.Vec3{1.5, 10, 0}), 2, 1)
	assert.ErrorIs(t, err, ErrBoxTooSmall)

	_, err = newGrid(NewBox(mgl64.Vec3{}, mgl64.Vec3{1e6, 1e6, 1e6}), 3, 0.5)
	assert.ErrorIs(t, err, ErrBoxTooSmall)
}

func TestGridLinkUnlink(t *testing.T) {
	g, err := newGrid(NewBox(mgl64.Vec3{}, mgl64.Vec3{4, 0, 0}), 1, 1)
	require.NoError(t, err)

	ps := make([]Particle, 3)
	for h := range ps {
		g.link(ps, h, 1)
	}
	assert.Equal(t, 0, g.cells[1].head)
	assert.Equal(t, 2, g.cells[1].tail)
	assert.Equal(t, 1, ps[0].cellSucc)
	assert.Equal(t, 1, ps[2].cellPred)

	g.unlink(ps, 1)
	assert.Equal(t, 2, ps[0].cellSucc)
	assert.Equal(t, 0, ps[2].cellPred)
	assert.Equal(t, nilIndex, ps[1].cell)

	g.unlink(ps, 0)
	g.unlink(ps, 2)
	assert.Equal(t, nilIndex, g.cells[1].head)
	assert.Equal(t, nilIndex, g.cells[1].tail)

	g.link(ps, 1, 2)
	assert.Equal(t, 1, g.cells[2].head)
	assert.Equal(t, 2, ps[1].cell)
}
