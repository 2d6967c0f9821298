package collision

import (
	"math"

	"github.com/pkg/errors"
)

// maxCells caps the size of the cell array, ghost layer included.
const maxCells = 1 << 26

type gridCell struct {
	bounds Box
	head   int // first particle in the cell
	tail   int // last particle in the cell
}

// grid partitions the box into cells at least one particle diameter wide,
// surrounded by one layer of ghost cells so that neighbor lookups never leave
// the cell array.
type grid struct {
	dim      int
	numCells [MaxDimension]int // interior cells per axis
	outer    [MaxDimension]int // cells per axis including the ghost layer
	cellSize [MaxDimension]float64
	stride   [MaxDimension]int
	cells    []gridCell

	// directNeighborOffsets maps a cell change direction (2*axis+side) to the
	// index delta of the adjacent cell.
	directNeighborOffsets [2 * MaxDimension]int
	// neighborOffsets holds the index deltas of all 3^dim cells around a cell,
	// the cell itself included.
	neighborOffsets []int
	// cellChangeMasks tells, per neighbor, which cell change directions bring
	// that neighbor newly into reach.
	cellChangeMasks []int
}

func newGrid(bounds Box, dim int, radius float64) (*grid, error) {
	g := &grid{dim: dim}

	total := 1
	for i := 0; i < dim; i++ {
		g.numCells[i] = int(math.Floor(bounds.Size(i) / (2 * radius)))
		if g.numCells[i] < 1 {
			return nil, errors.Wrapf(ErrBoxTooSmall, "axis %d spans %g, a particle needs %g", i, bounds.Size(i), 2*radius)
		}
		g.cellSize[i] = bounds.Size(i) / float64(g.numCells[i])
		g.outer[i] = g.numCells[i] + 2
		g.stride[i] = total
		if total > maxCells/g.outer[i] {
			return nil, errors.Wrapf(ErrBoxTooSmall, "particle radius %g needs more than %d cells", radius, maxCells)
		}
		total *= g.outer[i]
	}

	g.cells = make([]gridCell, total)
	for c := range g.cells {
		var min, max Point
		for i := 0; i < dim; i++ {
			k := (c / g.stride[i]) % g.outer[i]
			min[i] = bounds.Min[i] + g.cellSize[i]*float64(k-1)
			max[i] = bounds.Min[i] + g.cellSize[i]*float64(k)
		}
		g.cells[c] = gridCell{bounds: Box{Min: min, Max: max}, head: nilIndex, tail: nilIndex}
	}

	for i := 0; i < dim; i++ {
		g.directNeighborOffsets[2*i+0] = -g.stride[i]
		g.directNeighborOffsets[2*i+1] = g.stride[i]
	}

	numNeighbors := 1
	for i := 0; i < dim; i++ {
		numNeighbors *= 3
	}
	g.neighborOffsets = make([]int, numNeighbors)
	g.cellChangeMasks = make([]int, numNeighbors)
	for n := 0; n < numNeighbors; n++ {
		rem := n
		for i := 0; i < dim; i++ {
			d := rem%3 - 1
			rem /= 3

			g.neighborOffsets[n] += d * g.stride[i]
			switch d {
			case -1:
				g.cellChangeMasks[n] |= 1 << (2*i + 0)
			case 1:
				g.cellChangeMasks[n] |= 1 << (2*i + 1)
			}
		}
	}
	return g, nil
}

// cellIndex returns the interior cell containing p.
func (g *grid) cellIndex(bounds Box, p Point) int {
	c := 0
	for i := 0; i < g.dim; i++ {
		k := int(math.Floor((p[i]-bounds.Min[i])/g.cellSize[i])) + 1
		if k < 1 {
			k = 1
		} else if k > g.numCells[i] {
			k = g.numCells[i]
		}
		c += k * g.stride[i]
	}
	return c
}

// link appends particle h to the end of cell c's particle list.
func (g *grid) link(ps []Particle, h, c int) {
	cell := &g.cells[c]
	p := &ps[h]
	p.cell = c
	p.cellPred = cell.tail
	p.cellSucc = nilIndex
	if cell.tail != nilIndex {
		ps[cell.tail].cellSucc = h
	} else {
		cell.head = h
	}
	cell.tail = h
}

// unlink removes particle h from the particle list of its cell.
func (g *grid) unlink(ps []Particle, h int) {
	p := &ps[h]
	cell := &g.cells[p.cell]
	if p.cellPred != nilIndex {
		ps[p.cellPred].cellSucc = p.cellSucc
	} else {
		cell.head = p.cellSucc
	}
	if p.cellSucc != nilIndex {
		ps[p.cellSucc].cellPred = p.cellPred
	} else {
		cell.tail = p.cellPred
	}
	p.cell = nilIndex
	p.cellPred = nilIndex
	p.cellSucc = nilIndex
}
