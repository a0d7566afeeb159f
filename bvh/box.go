package bvh

import (
	"github.com/golang/geo/r3"

	"go.viam.com/meshbvh/spatialmath"
)

// Bounds is an axis-aligned box given by its corners.
type Bounds struct {
	Min r3.Vector
	Max r3.Vector
}

// Box is a node's object-space axis-aligned bounding box. Leaf boxes also own the indices of the
// faces they bound.
type Box struct {
	min       r3.Vector
	max       r3.Vector
	centroid  r3.Vector
	halfWidth r3.Vector

	faces []int
}

func newBox(lower, upper r3.Vector) *Box {
	return &Box{
		min:       lower,
		max:       upper,
		centroid:  lower.Add(upper).Mul(0.5),
		halfWidth: upper.Sub(lower).Mul(0.5),
	}
}

// Min returns the lower corner.
func (b *Box) Min() r3.Vector { return b.min }

// Max returns the upper corner.
func (b *Box) Max() r3.Vector { return b.max }

// Centroid returns the box center.
func (b *Box) Centroid() r3.Vector { return b.centroid }

// HalfWidth returns half the box extent along each axis.
func (b *Box) HalfWidth() r3.Vector { return b.halfWidth }

// NumFaces returns how many faces the box holds. Interior boxes hold none.
func (b *Box) NumFaces() int { return len(b.faces) }

// Bounds returns the box corners.
func (b *Box) Bounds() Bounds { return Bounds{Min: b.min, Max: b.max} }

// longestAxis is the axis of greatest extent.
func (b *Box) longestAxis() int {
	return spatialmath.LongestAxis(b.max.Sub(b.min))
}
