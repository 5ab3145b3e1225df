package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Entry validation errors
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidParameter  = errors.New("invalid parameter")

	// Numerical errors
	ErrSingular          = errors.New("numerical degeneracy")
	ErrZeroVariance      = fmt.Errorf("%w: zero-variance response", ErrSingular)
	ErrRankDeficient     = fmt.Errorf("%w: rank-deficient matrix", ErrSingular)
	ErrDegenerateScores  = fmt.Errorf("%w: degenerate scores", ErrSingular)
	ErrDegenerateWeights = fmt.Errorf("%w: zero-norm weight vector", ErrSingular)

	// Run errors
	ErrInvalidManifest = errors.New("invalid correction manifest")
)

// Error constructors with context
func NewDimensionError(what string, want, got int) error {
	return fmt.Errorf("%w: %s expected %d, got %d", ErrDimensionMismatch, what, want, got)
}

func NewParameterError(name string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidParameter, name, reason)
}

// NewSingularError wraps one of the numerical sentinels with the step that
// produced it. Passing nil uses the generic ErrSingular.
func NewSingularError(cause error, step string) error {
	if cause == nil {
		cause = ErrSingular
	}
	return fmt.Errorf("%w during %s", cause, step)
}

func NewManifestError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidManifest, field, reason)
}

// Error checking helpers
func IsDimensionError(err error) bool {
	return errors.Is(err, ErrDimensionMismatch)
}

func IsParameterError(err error) bool {
	return errors.Is(err, ErrInvalidParameter)
}

func IsSingularError(err error) bool {
	return errors.Is(err, ErrSingular)
}

func IsValidationError(err error) bool {
	return IsDimensionError(err) || IsParameterError(err)
}
