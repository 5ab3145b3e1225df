// Package osc holds the domain types of orthogonal signal correction:
// the variant selector, run parameters, per-component traces and the
// result bundle handed to downstream consumers.
package osc

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ============================================================================
// VARIANTS
// ============================================================================

// Variant selects the per-component extraction algorithm
type Variant string

const (
	VariantWold    Variant = "wold"
	VariantSjoblom Variant = "sjoblom"
	VariantFearn   Variant = "fearn"
)

// AllVariants lists the supported variants in a stable order
func AllVariants() []Variant {
	return []Variant{VariantWold, VariantSjoblom, VariantFearn}
}

// String returns the string representation
func (v Variant) String() string {
	return string(v)
}

// IsValid reports whether v names a supported variant
func (v Variant) IsValid() bool {
	switch v {
	case VariantWold, VariantSjoblom, VariantFearn:
		return true
	}
	return false
}

// ParseVariant parses a case-insensitive variant name. "sjöblom" is
// accepted as an alias of "sjoblom".
func ParseVariant(s string) (Variant, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "sjöblom" {
		name = string(VariantSjoblom)
	}
	v := Variant(name)
	if !v.IsValid() {
		return "", fmt.Errorf("unknown OSC variant %q", s)
	}
	return v, nil
}

// ============================================================================
// CONVERGENCE
// ============================================================================

// Status is the terminal state of an inner convergence loop
type Status string

const (
	StatusRunning        Status = "running"
	StatusConverged      Status = "converged"
	StatusMaxIterReached Status = "max_iter_reached"
)

// ComponentTrace records how one orthogonal component was extracted
type ComponentTrace struct {
	Index         int     `json:"index"`                    // 0-based extraction order
	Status        Status  `json:"status"`                   // converged or max_iter_reached
	Iterations    int     `json:"iterations"`               // inner iterations used (>= 1)
	Change        float64 `json:"change"`                   // last relative change
	Angle         float64 `json:"angle"`                    // degrees between score and response
	SingularValue float64 `json:"singular_value,omitempty"` // Fearn only
}

// Converged reports whether the inner loop met the tolerance
func (c ComponentTrace) Converged() bool {
	return c.Status == StatusConverged
}

// ============================================================================
// RESULT BUNDLE
// ============================================================================

// Result is the output bundle of one correction.
//
// Weights and Loadings are cols×n, Scores is rows×n, column k holding the
// k-th extracted component. All three are nil when no component was
// requested.
type Result struct {
	Variant    Variant          `json:"variant"`
	Corrected  *mat.Dense       `json:"-"`
	Weights    *mat.Dense       `json:"-"`
	Scores     *mat.Dense       `json:"-"`
	Loadings   *mat.Dense       `json:"-"`
	R2         float64          `json:"r2"`    // % of the sum of squares retained
	Angle      float64          `json:"angle"` // mean angle in degrees
	Components []ComponentTrace `json:"components"`
}

// NumComponents returns how many components were extracted
func (r *Result) NumComponents() int {
	return len(r.Components)
}

// AllConverged reports whether every inner loop met the tolerance
func (r *Result) AllConverged() bool {
	for _, c := range r.Components {
		if !c.Converged() {
			return false
		}
	}
	return true
}

// Angles returns the per-component angles in extraction order
func (r *Result) Angles() []float64 {
	out := make([]float64, len(r.Components))
	for i, c := range r.Components {
		out[i] = c.Angle
	}
	return out
}

// Iterations returns the per-component inner iteration counts
func (r *Result) Iterations() []float64 {
	out := make([]float64, len(r.Components))
	for i, c := range r.Components {
		out[i] = float64(c.Iterations)
	}
	return out
}
