package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxDimension is the largest number of spatial dimensions a collision box supports.
const MaxDimension = 3

// Point is a position in collision box coordinates.
// Components at or beyond the box dimension are ignored and kept at zero.
type Point = mgl64.Vec3

// Vector is a displacement or a velocity in collision box coordinates.
type Vector = mgl64.Vec3

// Box is an axis-aligned box given by its minimum and maximum corners.
type Box struct {
	Min, Max Point
}

// NewBox creates a box spanning the two corners.
func NewBox(min, max Point) Box {
	return Box{Min: min, Max: max}
}

// Size returns the extent of the box along axis i.
func (b Box) Size(i int) float64 {
	return b.Max[i] - b.Min[i]
}

// Center returns the center point of the box.
func (b Box) Center() Point {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Inset shrinks the box by d on both sides of its first dim axes.
func (b Box) Inset(d float64, dim int) Box {
	for i := 0; i < dim; i++ {
		b.Min[i] += d
		b.Max[i] -= d
	}
	return b
}

// Contains reports whether p lies inside the box, considering the first dim axes only.
func (b Box) Contains(p Point, dim int) bool {
	for i := 0; i < dim; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Clamp moves p onto the closest point of the box over the first dim axes
// and zeroes the remaining components.
func (b Box) Clamp(p Point, dim int) Point {
	var c Point
	for i := 0; i < dim; i++ {
		c[i] = math.Min(math.Max(p[i], b.Min[i]), b.Max[i])
	}
	return c
}

func isFinite(v mgl64.Vec3, dim int) bool {
	for i := 0; i < dim; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}

// truncate zeroes the components of v past the first dim axes.
func truncate(v mgl64.Vec3, dim int) mgl64.Vec3 {
	for i := dim; i < MaxDimension; i++ {
		v[i] = 0
	}
	return v
}
