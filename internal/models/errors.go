package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingQuery  = errors.New("query is required")
	ErrInvalidWeight = errors.New("weight must be positive")
	ErrNegativeLimit = errors.New("limits must not be negative")
	ErrInvalidStart  = errors.New("start must be an absolute IRI")
)

// Sentinel errors for lookups.
var (
	ErrRunNotFound   = errors.New("run not found")
	ErrQueryNotFound = errors.New("query not found")
)

// ErrFieldOutOfRange returns an error for a numeric field outside [lo, hi].
func ErrFieldOutOfRange(field string, lo, hi int) error {
	return fmt.Errorf("%s must be between %d and %d", field, lo, hi)
}
