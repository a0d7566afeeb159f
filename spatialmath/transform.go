package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// orthonormalTolerance bounds how far RᵀR may drift from identity before a rotation is rejected.
const orthonormalTolerance = 1e-4

// Transform places object-space geometry in the world: a point p maps to R·(s⊙p) + t, where R is
// a proper rotation, s a per-axis scale and t a translation. The unscaled rotation and its
// transpose are cached since box tests need both.
type Transform struct {
	matrix      mgl64.Mat4
	world       mgl64.Mat4
	rotation    mgl64.Mat3
	transpose   mgl64.Mat3
	translation r3.Vector
	scale       r3.Vector
}

// NewTransform builds a Transform from an unscaled rigid matrix (rotation in the upper 3x3,
// translation in the last column) and a separate per-axis scale. Reflections are rejected;
// NewTransformFromMatrix folds them into the scale instead.
func NewTransform(matrix mgl64.Mat4, scale r3.Vector) (*Transform, error) {
	for _, f := range matrix {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, newNonFiniteMatrixError()
		}
	}
	if !IsFiniteVector(scale) || scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
		return nil, newBadScaleError(scale)
	}

	rotation := matrix.Mat3()
	if !rotation.Transpose().Mul3(rotation).ApproxEqualThreshold(mgl64.Ident3(), orthonormalTolerance) {
		return nil, newNotOrthonormalError()
	}
	if rotation.Det() < 0 {
		return nil, newImproperRotationError()
	}

	translation := r3.Vector{X: matrix[12], Y: matrix[13], Z: matrix[14]}
	unscaled := rotation.Mat4()
	unscaled.SetCol(3, mgl64.Vec4{translation.X, translation.Y, translation.Z, 1})

	return &Transform{
		matrix:      unscaled,
		world:       unscaled.Mul4(mgl64.Scale3D(scale.X, scale.Y, scale.Z)),
		rotation:    rotation,
		transpose:   rotation.Transpose(),
		translation: translation,
		scale:       scale,
	}, nil
}

// NewTransformFromMatrix decomposes a world matrix that may carry scale in its columns. The scale
// of each axis is the length of the corresponding column; a reflection is folded into the x scale.
func NewTransformFromMatrix(world mgl64.Mat4) (*Transform, error) {
	m3 := world.Mat3()
	scale := r3.Vector{X: m3.Col(0).Len(), Y: m3.Col(1).Len(), Z: m3.Col(2).Len()}
	if scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
		return nil, newBadScaleError(scale)
	}
	if m3.Det() < 0 {
		scale.X = -scale.X
	}

	unscaled := mgl64.Ident4()
	unscaled.SetCol(0, m3.Col(0).Mul(1/scale.X).Vec4(0))
	unscaled.SetCol(1, m3.Col(1).Mul(1/scale.Y).Vec4(0))
	unscaled.SetCol(2, m3.Col(2).Mul(1/scale.Z).Vec4(0))
	unscaled.SetCol(3, world.Col(3))
	unscaled[15] = 1
	return NewTransform(unscaled, scale)
}

// NewTransformFromPose builds a Transform from a position, an orientation quaternion and a scale.
// The quaternion is normalized first.
func NewTransformFromPose(position r3.Vector, orientation quat.Number, scale r3.Vector) (*Transform, error) {
	norm := quat.Abs(orientation)
	if norm < 1e-9 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, newBadQuaternionError(orientation)
	}
	q := quat.Scale(1/norm, orientation)
	m := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}.Mat4()
	m.SetCol(3, mgl64.Vec4{position.X, position.Y, position.Z, 1})
	return NewTransform(m, scale)
}

// IdentityTransform returns the transform that leaves geometry in place.
func IdentityTransform() *Transform {
	ident := mgl64.Ident4()
	return &Transform{
		matrix:    ident,
		world:     ident,
		rotation:  mgl64.Ident3(),
		transpose: mgl64.Ident3(),
		scale:     r3.Vector{X: 1, Y: 1, Z: 1},
	}
}

// Point maps an object-space point to world space.
func (t *Transform) Point(p r3.Vector) r3.Vector {
	return vecFromMgl(t.rotation.Mul3x1(vecToMgl(MulElem(p, t.scale)))).Add(t.translation)
}

// InversePoint maps a world-space point back to object space.
func (t *Transform) InversePoint(p r3.Vector) r3.Vector {
	local := t.InverseRotate(p.Sub(t.translation))
	return r3.Vector{X: local.X / t.scale.X, Y: local.Y / t.scale.Y, Z: local.Z / t.scale.Z}
}

// Rotate applies the unscaled rotation to v.
func (t *Transform) Rotate(v r3.Vector) r3.Vector {
	return vecFromMgl(t.rotation.Mul3x1(vecToMgl(v)))
}

// InverseRotate applies the transpose of the unscaled rotation to v.
func (t *Transform) InverseRotate(v r3.Vector) r3.Vector {
	return vecFromMgl(t.transpose.Mul3x1(vecToMgl(v)))
}

// Axis returns the world direction of local axis i (a unit column of the rotation).
func (t *Transform) Axis(i int) r3.Vector {
	return vecFromMgl(t.rotation.Col(i))
}

// Axes returns the three world directions of the local axes.
func (t *Transform) Axes() [3]r3.Vector {
	return [3]r3.Vector{t.Axis(0), t.Axis(1), t.Axis(2)}
}

// ScaleExtent scales a non-negative half-width by the magnitude of the scale.
func (t *Transform) ScaleExtent(halfWidth r3.Vector) r3.Vector {
	return MulElem(halfWidth, t.scale.Abs())
}

// Translation returns the world position of the object-space origin.
func (t *Transform) Translation() r3.Vector {
	return t.translation
}

// Scale returns the per-axis scale.
func (t *Transform) Scale() r3.Vector {
	return t.scale
}

// Rotation returns the unscaled rotation.
func (t *Transform) Rotation() mgl64.Mat3 {
	return t.rotation
}

// Transpose returns the inverse of the unscaled rotation.
func (t *Transform) Transpose() mgl64.Mat3 {
	return t.transpose
}

// Matrix returns the rigid matrix without scale.
func (t *Transform) Matrix() mgl64.Mat4 {
	return t.matrix
}

// WorldMatrix returns the full matrix, rigid transform times scale.
func (t *Transform) WorldMatrix() mgl64.Mat4 {
	return t.world
}

// Orientation returns the rotation as a unit quaternion.
func (t *Transform) Orientation() quat.Number {
	q := mgl64.Mat4ToQuat(t.matrix)
	return quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}

// RelativeRotation returns the rotation taking directions in other's local frame into t's local
// frame, tᵀ·R_other.
func (t *Transform) RelativeRotation(other *Transform) mgl64.Mat3 {
	return t.transpose.Mul3(other.rotation)
}
