package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// ErrDegeneratePlanes is returned when three planes do not meet in exactly one point.
var ErrDegeneratePlanes = errors.New("planes do not intersect in a single point")

func newBadScaleError(scale r3.Vector) error {
	return errors.Errorf("scale components must be finite and non-zero, got %v", scale)
}

func newNotOrthonormalError() error {
	return errors.New("matrix rotation is not orthonormal")
}

func newImproperRotationError() error {
	return errors.New("matrix rotation is a reflection; put the mirroring in the scale")
}

func newNonFiniteMatrixError() error {
	return errors.New("matrix contains a non-finite value")
}

func newBadQuaternionError(q quat.Number) error {
	return errors.Errorf("cannot build a rotation from quaternion %v", q)
}
