package bvh

import (
	"github.com/pkg/errors"
)

var (
	// ErrNilMeshGroup is returned when Build is given no mesh group.
	ErrNilMeshGroup = errors.New("mesh group is nil")
	// ErrNilHierarchy is returned when a pairwise query is given no other hierarchy.
	ErrNilHierarchy = errors.New("other hierarchy is nil")
	// ErrZeroDirection is returned for a ray without a direction.
	ErrZeroDirection = errors.New("ray direction must be non-zero and finite")
	// ErrTransformNotSet is returned when a query needs a transform slot that was never set.
	ErrTransformNotSet = errors.New("transform not set")
	// ErrInvalidSlot is returned for slots other than SlotSelf and SlotOther.
	ErrInvalidSlot = errors.New("invalid transform slot")
	// ErrInvalidRadius is returned for a negative or non-finite squared sphere radius.
	ErrInvalidRadius = errors.New("squared sphere radius must be finite and non-negative")
)

func newTransformNotSetError(slot Slot) error {
	return errors.Wrapf(ErrTransformNotSet, "slot %s", slot)
}
