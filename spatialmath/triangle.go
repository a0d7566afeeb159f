package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Triangle is three points in space with a cached unit normal following the right hand rule.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a triangle from three points.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three vertices as a slice.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Vertices returns the three vertices.
func (t *Triangle) Vertices() [3]r3.Vector {
	return [3]r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal, or the zero vector for a degenerate triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Centroid returns the mean of the three vertices.
func (t *Triangle) Centroid() r3.Vector {
	return t.VertexSum().Mul(1. / 3.)
}

// VertexSum returns p0+p1+p2.
func (t *Triangle) VertexSum() r3.Vector {
	return t.p0.Add(t.p1).Add(t.p2)
}

// Area returns the triangle's area.
func (t *Triangle) Area() float64 {
	return t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm() / 2
}

// Transform returns the triangle placed in the world by tf.
func (t *Triangle) Transform(tf *Transform) *Triangle {
	return NewTriangle(tf.Point(t.p0), tf.Point(t.p1), tf.Point(t.p2))
}

// IntersectRay runs the ray-triangle test against this triangle.
func (t *Triangle) IntersectRay(origin, direction r3.Vector, mode PickMode) (RayHit, bool) {
	return RayTriangle(t.Vertices(), origin, direction, mode)
}

// Intersects runs the triangle-triangle test against other.
func (t *Triangle) Intersects(other *Triangle) (TriangleContact, bool) {
	return TriangleTriangle(t.Vertices(), other.Vertices())
}
