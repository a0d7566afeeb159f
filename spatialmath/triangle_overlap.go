package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// planeDistanceEpsilon is the dead zone below which a vertex is treated as lying on the other
// triangle's plane.
const planeDistanceEpsilon = 1e-6

// TriangleContact describes an intersecting triangle pair. Points holds the unscaled vertex sum of
// each triangle (divide by three for the centroid) and Normals holds each triangle's unit normal.
type TriangleContact struct {
	Points  [2]r3.Vector
	Normals [2]r3.Vector
}

// TriangleTriangle is Möller's interval overlap test. Coplanar pairs are resolved in the plane.
func TriangleTriangle(a, b [3]r3.Vector) (TriangleContact, bool) {
	n1 := a[1].Sub(a[0]).Cross(a[2].Sub(a[0]))
	d1 := -n1.Dot(a[0])
	du := signedDistances(n1, d1, b)
	if sameSide(du) {
		return TriangleContact{}, false
	}

	n2 := b[1].Sub(b[0]).Cross(b[2].Sub(b[0]))
	d2 := -n2.Dot(b[0])
	dv := signedDistances(n2, d2, a)
	if sameSide(dv) {
		return TriangleContact{}, false
	}

	contact := TriangleContact{
		Points:  [2]r3.Vector{a[0].Add(a[1]).Add(a[2]), b[0].Add(b[1]).Add(b[2])},
		Normals: [2]r3.Vector{n1.Normalize(), n2.Normalize()},
	}

	if du[0] == 0 && du[1] == 0 && du[2] == 0 {
		return contact, coplanarTriangles(n1, a, b)
	}

	// Project onto the largest component of the intersection line direction.
	index := LongestAxis(n1.Cross(n2))
	var vp, up [3]float64
	for i := range a {
		vp[i] = Component(a[i], index)
		up[i] = Component(b[i], index)
	}

	isect1, ok := computeInterval(vp, dv)
	if !ok {
		return contact, coplanarTriangles(n1, a, b)
	}
	isect2, ok := computeInterval(up, du)
	if !ok {
		return contact, coplanarTriangles(n1, a, b)
	}

	sortPair(&isect1)
	sortPair(&isect2)
	if isect1[1] < isect2[0] || isect2[1] < isect1[0] {
		return TriangleContact{}, false
	}
	return contact, true
}

func signedDistances(n r3.Vector, d float64, tri [3]r3.Vector) [3]float64 {
	var out [3]float64
	for i, p := range tri {
		out[i] = n.Dot(p) + d
		if math.Abs(out[i]) < planeDistanceEpsilon {
			out[i] = 0
		}
	}
	return out
}

// sameSide reports whether all three distances are strictly on one side of the plane.
func sameSide(d [3]float64) bool {
	return d[0]*d[1] > 0 && d[0]*d[2] > 0
}

// computeInterval returns where a triangle's edges cross the other plane, projected onto the
// intersection line. The vertex alone on its side of the plane anchors both crossings. False
// means every distance is zero.
func computeInterval(vv, d [3]float64) ([2]float64, bool) {
	switch {
	case d[0]*d[1] > 0:
		return isect(vv[2], vv[0], vv[1], d[2], d[0], d[1]), true
	case d[0]*d[2] > 0:
		return isect(vv[1], vv[0], vv[2], d[1], d[0], d[2]), true
	case d[1]*d[2] > 0 || d[0] != 0:
		return isect(vv[0], vv[1], vv[2], d[0], d[1], d[2]), true
	case d[1] != 0:
		return isect(vv[1], vv[0], vv[2], d[1], d[0], d[2]), true
	case d[2] != 0:
		return isect(vv[2], vv[0], vv[1], d[2], d[0], d[1]), true
	}
	return [2]float64{}, false
}

func isect(vv0, vv1, vv2, d0, d1, d2 float64) [2]float64 {
	return [2]float64{
		vv0 + (vv1-vv0)*d0/(d0-d1),
		vv0 + (vv2-vv0)*d0/(d0-d2),
	}
}

func sortPair(p *[2]float64) {
	if p[0] > p[1] {
		p[0], p[1] = p[1], p[0]
	}
}

// CoplanarTriangles tests two triangles already known to share the plane with normal n.
func CoplanarTriangles(n r3.Vector, a, b [3]r3.Vector) bool {
	return coplanarTriangles(n, a, b)
}

func coplanarTriangles(n r3.Vector, a, b [3]r3.Vector) bool {
	// Project onto the axis-aligned plane that maximizes the triangles' area.
	var i0, i1 int
	switch LongestAxis(n) {
	case 0:
		i0, i1 = 1, 2
	case 1:
		i0, i1 = 0, 2
	default:
		i0, i1 = 0, 1
	}

	var pa, pb [3][2]float64
	for k := 0; k < 3; k++ {
		pa[k] = [2]float64{Component(a[k], i0), Component(a[k], i1)}
		pb[k] = [2]float64{Component(b[k], i0), Component(b[k], i1)}
	}

	for k := 0; k < 3; k++ {
		if edgeAgainstTriangle(pa[k], pa[(k+1)%3], pb) {
			return true
		}
	}

	// No edges cross, so one triangle may contain the other.
	return pointInTriangle2D(pa[0], pb) || pointInTriangle2D(pb[0], pa)
}

func edgeAgainstTriangle(v0, v1 [2]float64, u [3][2]float64) bool {
	ax := v1[0] - v0[0]
	ay := v1[1] - v0[1]
	return edgeEdge(v0, ax, ay, u[0], u[1]) ||
		edgeEdge(v0, ax, ay, u[1], u[2]) ||
		edgeEdge(v0, ax, ay, u[2], u[0])
}

// edgeEdge tests edge v0+(ax,ay) against edge u0u1 (Franklin Antonio's test).
func edgeEdge(v0 [2]float64, ax, ay float64, u0, u1 [2]float64) bool {
	bx := u0[0] - u1[0]
	by := u0[1] - u1[1]
	cx := v0[0] - u0[0]
	cy := v0[1] - u0[1]
	f := ay*bx - ax*by
	d := by*cx - bx*cy
	if (f > 0 && d >= 0 && d <= f) || (f < 0 && d <= 0 && d >= f) {
		e := ax*cy - ay*cx
		if f > 0 {
			return e >= 0 && e <= f
		}
		return e <= 0 && e >= f
	}
	return false
}

func pointInTriangle2D(p [2]float64, u [3][2]float64) bool {
	var d [3]float64
	for k := 0; k < 3; k++ {
		next := u[(k+1)%3]
		a := next[1] - u[k][1]
		b := -(next[0] - u[k][0])
		c := -a*u[k][0] - b*u[k][1]
		d[k] = a*p[0] + b*p[1] + c
	}
	return d[0]*d[1] > 0 && d[0]*d[2] > 0
}
