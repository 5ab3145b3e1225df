package osc

import (
	"fmt"
	"math"

	"gosc/domain/core"
)

// Default parameter values
const (
	DefaultComponents = 2
	DefaultTolerance  = 1e-6
	DefaultMaxIter    = 50
)

// Params configures one correction run
type Params struct {
	Components int     `json:"components"` // orthogonal components to remove (0..cols)
	Tolerance  float64 `json:"tolerance"`  // inner-loop relative change threshold (> 0)
	MaxIter    int     `json:"max_iter"`   // inner-loop iteration bound (>= 1)
	Variant    Variant `json:"variant"`

	// PLSComponents is the number of latent variables used by the partial
	// regression step of the Wold and Sjöblom variants. Zero selects the
	// variant's own choice, see LatentVariables.
	PLSComponents int `json:"pls_components"`
}

// DefaultParams returns the defaults for the given variant
func DefaultParams(v Variant) Params {
	return Params{
		Components: DefaultComponents,
		Tolerance:  DefaultTolerance,
		MaxIter:    DefaultMaxIter,
		Variant:    v,
	}
}

// Validate checks the parameters against a rows×cols measurement matrix
func (p Params) Validate(rows, cols int) error {
	if rows < 2 {
		return core.NewParameterError("rows", fmt.Sprintf("must be at least 2, got %d", rows))
	}
	if !p.Variant.IsValid() {
		return core.NewParameterError("variant", fmt.Sprintf("%q is not supported", p.Variant))
	}
	if p.Components < 0 || p.Components > cols {
		return core.NewParameterError("components", fmt.Sprintf("must be in [0, %d], got %d", cols, p.Components))
	}
	if math.IsNaN(p.Tolerance) || math.IsInf(p.Tolerance, 0) || p.Tolerance <= 0 {
		return core.NewParameterError("tolerance", fmt.Sprintf("must be a positive finite number, got %g", p.Tolerance))
	}
	if p.MaxIter < 1 {
		return core.NewParameterError("max_iter", fmt.Sprintf("must be at least 1, got %d", p.MaxIter))
	}
	if limit := min(rows, cols); p.PLSComponents < 0 || p.PLSComponents > limit {
		return core.NewParameterError("pls_components", fmt.Sprintf("must be in [0, %d], got %d", limit, p.PLSComponents))
	}
	return nil
}

// LatentVariables resolves PLSComponents for a rows×cols matrix.
//
// Wold defaults to the saturated model, min(rows, cols), capped later at
// the numerical rank of the working matrix. Its inner loop is a fixed
// point of t ↦ X·PLS(X, Qt): only a regression that reproduces Qt inside
// the column space of X makes that fixed point orthogonal to y. A single
// latent variable gives w ∝ XᵀQt, the loop turns into a power iteration
// on XXᵀQ and converges to scores tens of degrees away from 90°.
//
// Sjöblom's refit follows a loop that already orthogonalizes every score,
// so one latent variable is enough. More would regress the final score on
// the near-null direction its own deflation leaves behind in X, and the
// next component would collapse onto it.
func (p Params) LatentVariables(rows, cols int) int {
	if p.PLSComponents > 0 {
		return p.PLSComponents
	}
	if p.Variant == VariantSjoblom {
		return 1
	}
	return min(rows, cols)
}

// Fields returns the parameters as a flat map for fingerprints and logs
func (p Params) Fields() map[string]interface{} {
	return map[string]interface{}{
		"components":     p.Components,
		"tolerance":      p.Tolerance,
		"max_iter":       p.MaxIter,
		"variant":        p.Variant.String(),
		"pls_components": p.PLSComponents,
	}
}
