package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshbvh/utils"
)

const (
	// rayEpsilon is the smallest determinant accepted by the ray-triangle test and the smallest
	// accepted hit distance.
	rayEpsilon = 1e-6
	// barycentricTolerance lets hits on shared edges register despite rounding.
	barycentricTolerance = -1e-4
	// boxEpsilon pads |R| in the box-box test so near-parallel axes do not produce false
	// separations.
	boxEpsilon = 1e-5
	// planeEpsilon is the smallest triple product accepted by ThreePlaneIntersection.
	planeEpsilon = 1e-6
)

// PickMode selects which triangle facings a ray may hit.
type PickMode uint8

const (
	// PickDisabled never reports a hit.
	PickDisabled PickMode = iota
	// PickFront reports only triangles whose front face the ray strikes.
	PickFront
	// PickBack reports only triangles whose back face the ray strikes.
	PickBack
	// PickBoth reports either facing.
	PickBoth
)

func (m PickMode) String() string {
	switch m {
	case PickDisabled:
		return "disabled"
	case PickFront:
		return "front"
	case PickBack:
		return "back"
	case PickBoth:
		return "both"
	}
	return fmt.Sprintf("PickMode(%d)", uint8(m))
}

// PickModeFromString parses the names returned by PickMode.String.
func PickModeFromString(s string) (PickMode, error) {
	for _, m := range []PickMode{PickDisabled, PickFront, PickBack, PickBoth} {
		if m.String() == s {
			return m, nil
		}
	}
	return PickDisabled, errors.Errorf("unknown pick mode %q", s)
}

// RayHit is the barycentric position and distance of a ray-triangle hit. The hit point is
// (1-U-V)·p0 + U·p1 + V·p2.
type RayHit struct {
	U        float64
	V        float64
	Distance float64
}

// RaySphere reports whether the ray from origin along direction touches the sphere. Spheres
// entirely behind the origin are missed.
func RaySphere(center r3.Vector, radius float64, origin, direction r3.Vector) bool {
	m := origin.Sub(center)
	b := m.Dot(direction)
	c := m.Norm2() - radius*radius
	if c > 0 && b > 0 {
		return false
	}
	return b*b-direction.Norm2()*c >= 0
}

// RayTriangle is the Möller–Trumbore ray-triangle test. The determinant is positive when the ray
// strikes the counter-clockwise (front) face.
func RayTriangle(tri [3]r3.Vector, origin, direction r3.Vector, mode PickMode) (RayHit, bool) {
	if mode == PickDisabled {
		return RayHit{}, false
	}

	edge1 := tri[1].Sub(tri[0])
	edge2 := tri[2].Sub(tri[0])
	pvec := direction.Cross(edge2)
	det := edge1.Dot(pvec)

	switch mode {
	case PickFront:
		if det < rayEpsilon {
			return RayHit{}, false
		}
	case PickBack:
		if det > -rayEpsilon {
			return RayHit{}, false
		}
	default:
		if math.Abs(det) < rayEpsilon {
			return RayHit{}, false
		}
	}
	invDet := 1 / det

	tvec := origin.Sub(tri[0])
	u := tvec.Dot(pvec) * invDet
	if u < barycentricTolerance || u > 1 {
		return RayHit{}, false
	}

	qvec := tvec.Cross(edge1)
	v := direction.Dot(qvec) * invDet
	if v < barycentricTolerance || u+v > 1 {
		return RayHit{}, false
	}

	dist := edge2.Dot(qvec) * invDet
	if dist < rayEpsilon {
		return RayHit{}, false
	}
	return RayHit{U: u, V: v, Distance: dist}, true
}

// RayOBB is the slab test of a ray against an oriented box given by its world center, unit axes
// and half-widths along those axes.
func RayOBB(center r3.Vector, axes [3]r3.Vector, halfWidth, origin, direction r3.Vector) bool {
	tMin := math.Inf(-1)
	tMax := math.Inf(1)
	toCenter := center.Sub(origin)

	for i, axis := range axes {
		h := Component(halfWidth, i)
		e := axis.Dot(toCenter)
		f := axis.Dot(direction)

		// Only an exactly parallel axis is decided without dividing. A grazing ray still gets a
		// finite, if huge, slab interval.
		if f == 0 {
			if math.Abs(e) > h {
				return false
			}
			continue
		}

		t1 := (e + h) / f
		t2 := (e - h) / f
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax || tMax < 0 {
			return false
		}
	}
	return true
}

// OBBOverlap tests two oriented boxes for overlap along the six face normals. The boxes are
// expressed in A's local frame: rotation takes B's axes into A's frame and translation is B's
// center relative to A's center.
func OBBOverlap(rotation mgl64.Mat3, translation, halfA, halfB r3.Vector) bool {
	r, absR := relativeRotation(rotation)
	a := [3]float64{halfA.X, halfA.Y, halfA.Z}
	b := [3]float64{halfB.X, halfB.Y, halfB.Z}
	t := [3]float64{translation.X, translation.Y, translation.Z}

	for i := 0; i < 3; i++ {
		rb := b[0]*absR[i][0] + b[1]*absR[i][1] + b[2]*absR[i][2]
		if math.Abs(t[i]) > a[i]+rb {
			return false
		}
	}

	for j := 0; j < 3; j++ {
		ra := a[0]*absR[0][j] + a[1]*absR[1][j] + a[2]*absR[2][j]
		if math.Abs(t[0]*r[0][j]+t[1]*r[1][j]+t[2]*r[2][j]) > ra+b[j] {
			return false
		}
	}
	return true
}

func relativeRotation(rotation mgl64.Mat3) (r, absR [3][3]float64) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = rotation.At(i, j)
			absR[i][j] = math.Abs(r[i][j]) + boxEpsilon
		}
	}
	return r, absR
}

// BoxSphere clamps a sphere center, given in the box's local frame, to a box of the given
// half-widths centered on the origin. It returns the closest point on the box and whether the
// sphere reaches it.
func BoxSphere(halfWidth, localCenter r3.Vector, radiusSquared float64) (r3.Vector, bool) {
	closest := r3.Vector{
		X: utils.Clamp(localCenter.X, -halfWidth.X, halfWidth.X),
		Y: utils.Clamp(localCenter.Y, -halfWidth.Y, halfWidth.Y),
		Z: utils.Clamp(localCenter.Z, -halfWidth.Z, halfWidth.Z),
	}
	return closest, closest.Sub(localCenter).Norm2() <= radiusSquared
}

// ThreePlaneIntersection returns the single point shared by three planes, each given by a point
// on it and its normal.
func ThreePlaneIntersection(p1, n1, p2, n2, p3, n3 r3.Vector) (r3.Vector, error) {
	n23 := n2.Cross(n3)
	denom := n1.Dot(n23)
	if math.Abs(denom) <= planeEpsilon {
		return r3.Vector{}, ErrDegeneratePlanes
	}

	d1 := n1.Dot(p1)
	d2 := n2.Dot(p2)
	d3 := n3.Dot(p3)
	return n23.Mul(d1).Add(n3.Cross(n1).Mul(d2)).Add(n1.Cross(n2).Mul(d3)).Mul(1 / denom), nil
}

// SegmentIntersection2D returns the crossing point of segments a0a1 and b0b1. Parallel and
// collinear segments report no crossing.
func SegmentIntersection2D(a0, a1, b0, b1 r2.Point) (r2.Point, bool) {
	r := a1.Sub(a0)
	s := b1.Sub(b0)
	denom := r.Cross(s)
	if math.Abs(denom) < rayEpsilon {
		return r2.Point{}, false
	}

	qp := b0.Sub(a0)
	t := qp.Cross(s) / denom
	u := qp.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return r2.Point{}, false
	}
	return a0.Add(r.Mul(t)), true
}

// SegmentClosestApproach finds the closest points between segments p1p2 and p3p4 and returns
// their midpoint and the distance between them. Zero-length segments report false.
func SegmentClosestApproach(p1, p2, p3, p4 r3.Vector) (r3.Vector, float64, bool) {
	d1 := p2.Sub(p1)
	d2 := p4.Sub(p3)
	a := d1.Norm2()
	e := d2.Norm2()
	if a <= rayEpsilon || e <= rayEpsilon {
		return r3.Vector{}, 0, false
	}

	r := p1.Sub(p3)
	b := d1.Dot(d2)
	c := d1.Dot(r)
	f := d2.Dot(r)
	denom := a*e - b*b

	var s float64
	if denom > rayEpsilon {
		s = utils.Clamp((b*f-c*e)/denom, 0, 1)
	}
	t := (b*s + f) / e
	switch {
	case t < 0:
		t = 0
		s = utils.Clamp(-c/a, 0, 1)
	case t > 1:
		t = 1
		s = utils.Clamp((b-c)/a, 0, 1)
	}

	closest1 := p1.Add(d1.Mul(s))
	closest2 := p3.Add(d2.Mul(t))
	return closest1.Add(closest2).Mul(0.5), closest1.Distance(closest2), true
}
