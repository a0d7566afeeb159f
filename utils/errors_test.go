package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestOutOfRangeError(t *testing.T) {
	err := NewOutOfRangeError("vertex index", 12, 8)
	test.That(t, err, test.ShouldBeError, "vertex index 12 out of range [0, 8)")
}
