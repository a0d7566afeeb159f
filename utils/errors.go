package utils

import (
	"github.com/pkg/errors"
)

// NewOutOfRangeError is used when an integer argument falls outside [0, limit).
func NewOutOfRangeError(what string, value, limit int) error {
	return errors.Errorf("%s %d out of range [0, %d)", what, value, limit)
}
