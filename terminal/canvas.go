package terminal

import (
	"math"

	collision "github.com/esimov/ascii-particles/collision-box"
	"github.com/esimov/ascii-particles/frame"
	runewidth "github.com/mattn/go-runewidth"
)

// density maps the number of particles sharing a character cell to a glyph.
var density = []rune(".:+*#%@")

const (
	obstacleGlyph = '█'
	hudHeight     = 1
)

// Style holds the colors of the scene.
type Style struct {
	Particle Color
	Obstacle Color
	Border   Color
}

// Canvas rasterizes frames into a back buffer of character cells. The box is
// drawn inside a border, the last line is left for the status line.
type Canvas struct {
	width, height int
	cells         []Cell
	counts        []int

	min, max [3]float64 // box shown by the last frame
}

// NewCanvas creates a canvas of the given terminal size.
func NewCanvas(width, height int) *Canvas {
	c := new(Canvas)
	c.Resize(width, height)
	return c
}

// Resize reallocates the back buffer.
func (c *Canvas) Resize(width, height int) {
	c.width, c.height = width, height
	c.cells = make([]Cell, width*height)
	c.counts = make([]int, width*height)
}

// Size returns the canvas size in cells.
func (c *Canvas) Size() (int, int) { return c.width, c.height }

// At returns the cell at column x and row y.
func (c *Canvas) At(x, y int) Cell { return c.cells[y*c.width+x] }

// viewport returns the area inside the border, in cells.
func (c *Canvas) viewport() (x0, y0, w, h int) {
	return 1, 1, c.width - 2, c.height - hudHeight - 2
}

// project maps a box position onto a cell of the viewport; y points up.
func (c *Canvas) project(p [3]float64) (int, int) {
	x0, y0, w, h := c.viewport()
	col, row := w/2, h/2
	if size := c.max[0] - c.min[0]; size > 0 {
		col = int(math.Floor((p[0] - c.min[0]) / size * float64(w)))
	}
	if size := c.max[1] - c.min[1]; size > 0 {
		row = h - 1 - int(math.Floor((p[1]-c.min[1])/size*float64(h)))
	}
	return x0 + clamp(col, 0, w-1), y0 + clamp(row, 0, h-1)
}

// ToBox maps a terminal cell back to the box position at its center. The
// third coordinate is the middle of the box.
func (c *Canvas) ToBox(x, y int) collision.Point {
	x0, y0, w, h := c.viewport()
	p := collision.Point{
		(c.min[0] + c.max[0]) / 2,
		(c.min[1] + c.max[1]) / 2,
		(c.min[2] + c.max[2]) / 2,
	}
	if w > 0 {
		p[0] = c.min[0] + (float64(x-x0)+0.5)/float64(w)*(c.max[0]-c.min[0])
	}
	if h > 0 && c.max[1] > c.min[1] {
		p[1] = c.min[1] + (float64(h-1-(y-y0))+0.5)/float64(h)*(c.max[1]-c.min[1])
	}
	return p
}

// Draw renders f with the given colors and status line.
func (c *Canvas) Draw(f *frame.Frame, style Style, status string) {
	for i := range c.cells {
		c.cells[i] = Cell{Ch: ' '}
		c.counts[i] = 0
	}
	_, _, w, h := c.viewport()
	if w < 1 || h < 1 {
		c.text(0, c.height-1, status, Color{})
		return
	}
	c.min, c.max = f.Min, f.Max

	c.border(style.Border)
	c.obstacle(f.Obstacle, style.Obstacle)
	for _, p := range f.Particles {
		x, y := c.project(p)
		i := y*c.width + x
		if c.cells[i].Ch == obstacleGlyph {
			continue
		}
		c.counts[i]++
		c.cells[i] = Cell{Ch: density[min(c.counts[i], len(density))-1], Fg: style.Particle}
	}
	c.text(0, c.height-1, status, Color{})
}

func (c *Canvas) border(fg Color) {
	right, bottom := c.width-1, c.height-hudHeight-1
	for x := 1; x < right; x++ {
		c.cells[x] = Cell{Ch: '─', Fg: fg}
		c.cells[bottom*c.width+x] = Cell{Ch: '─', Fg: fg}
	}
	for y := 1; y < bottom; y++ {
		c.cells[y*c.width] = Cell{Ch: '│', Fg: fg}
		c.cells[y*c.width+right] = Cell{Ch: '│', Fg: fg}
	}
	c.cells[0] = Cell{Ch: '┌', Fg: fg}
	c.cells[right] = Cell{Ch: '┐', Fg: fg}
	c.cells[bottom*c.width] = Cell{Ch: '└', Fg: fg}
	c.cells[bottom*c.width+right] = Cell{Ch: '┘', Fg: fg}
}

// obstacle fills every viewport cell whose center lies inside the obstacle
// outline in the projection plane.
func (c *Canvas) obstacle(s frame.Sphere, fg Color) {
	x0, y0, w, h := c.viewport()
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			p := c.ToBox(x, y)
			dx, dy := p[0]-s.Center[0], p[1]-s.Center[1]
			if c.max[1] == c.min[1] {
				dy = 0
			}
			if dx*dx+dy*dy <= s.Radius*s.Radius {
				c.cells[y*c.width+x] = Cell{Ch: obstacleGlyph, Fg: fg}
			}
		}
	}
}

// text writes s from column x, honoring wide characters and cutting it at
// the right edge.
func (c *Canvas) text(x, y int, s string, fg Color) {
	if y < 0 || y >= c.height {
		return
	}
	s = runewidth.Truncate(s, c.width-x, "…")
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		c.cells[y*c.width+x] = Cell{Ch: r, Fg: fg}
		x += rw
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	} else if v > hi {
		return hi
	}
	return v
}
