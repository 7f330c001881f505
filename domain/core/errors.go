package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Input contract errors
	ErrSchema     = errors.New("schema error")
	ErrValidation = errors.New("validation error")

	// Result-shape errors
	ErrEmptyResult = errors.New("empty result")

	// Numerical errors
	ErrRankDeficient = errors.New("rank-deficient design")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed mismatch")
	ErrHashMismatch = errors.New("hash mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewSchemaError(column string, reason string) error {
	return fmt.Errorf("%w: column %q: %s", ErrSchema, column, reason)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, reason)
}

func NewEmptyResultError(stage string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrEmptyResult, stage, reason)
}

func NewRankDeficiencyError(rank, cols int) error {
	return fmt.Errorf("%w: rank %d < %d design columns", ErrRankDeficient, rank, cols)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsEmptyResultError(err error) bool {
	return errors.Is(err, ErrEmptyResult)
}

func IsRankDeficiencyError(err error) bool {
	return errors.Is(err, ErrRankDeficient)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrSeedMismatch) ||
		errors.Is(err, ErrHashMismatch)
}
