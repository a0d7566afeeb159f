package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"

	"go.viam.com/meshbvh/utils"
)

// PlaneNormal returns the unit normal of the plane through p0, p1 and p2 following the right hand
// rule. Degenerate triangles return the zero vector.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// Component returns the value of v along axis 0 (x), 1 (y) or 2 (z).
func Component(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// MulElem returns the element-wise product of a and b.
func MulElem(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: a.X * b.X, Y: a.Y * b.Y, Z: a.Z * b.Z}
}

// LongestAxis returns the axis index along which extent is largest.
func LongestAxis(extent r3.Vector) int {
	return int(extent.LargestComponent())
}

// IsFiniteVector reports whether no component of v is NaN or infinite.
func IsFiniteVector(v r3.Vector) bool {
	return utils.IsFinite(v.X) && utils.IsFinite(v.Y) && utils.IsFinite(v.Z)
}

// R3VectorAlmostEqual compares two vectors component-wise within tol.
func R3VectorAlmostEqual(a, b r3.Vector, tol float64) bool {
	return utils.Float64AlmostEqual(a.X, b.X, tol) &&
		utils.Float64AlmostEqual(a.Y, b.Y, tol) &&
		utils.Float64AlmostEqual(a.Z, b.Z, tol)
}

func vecFromMgl(v mgl64.Vec3) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

func vecToMgl(v r3.Vector) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
