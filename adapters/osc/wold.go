package osc

import (
	"gonum.org/v1/gonum/mat"

	"gosc/adapters/linalg"
	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
	"gosc/ports"
)

// Wold extracts components following Wold et al. (1998): starting from the
// first principal axis, the score is alternately orthogonalized to Y and
// re-expressed through the working matrix via a PLS fit, until it stops
// moving. Each converged component is deflated from the working matrix.
type Wold struct {
	decomposer ports.DecomposerPort
}

// NewWold creates a Wold extractor
func NewWold(decomposer ports.DecomposerPort) *Wold {
	return &Wold{decomposer: decomposer}
}

// Variant identifies the extractor
func (w *Wold) Variant() domainOSC.Variant {
	return domainOSC.VariantWold
}

// Extract fills the workspace with params.Components components
func (w *Wold) Extract(ws *workspace) error {
	capacity, err := ws.orthogonalCapacity()
	if err != nil {
		return componentError(w.Variant(), 0, err)
	}

	for i := 0; i < ws.params.Components; i++ {
		if err := checkCapacity(i, capacity); err != nil {
			return componentError(w.Variant(), i, err)
		}
		t, err := firstAxisScore(w.decomposer, ws.working)
		if err != nil {
			return componentError(w.Variant(), i, err)
		}

		trace := domainOSC.ComponentTrace{Index: i, Status: domainOSC.StatusRunning}
		var weight *mat.VecDense
		for trace.Status == domainOSC.StatusRunning {
			trace.Iterations++

			orth, err := ws.orthogonalize(t, "score orthogonalization")
			if err != nil {
				return componentError(w.Variant(), i, err)
			}
			weight, err = linalg.PLS1(ws.working, orth, ws.latent)
			if err != nil {
				return componentError(w.Variant(), i, err)
			}
			if err := linalg.Normalize(weight); err != nil {
				return componentError(w.Variant(), i, core.NewSingularError(err, "weight normalization"))
			}

			next := ws.project(ws.working, weight)
			change, err := linalg.RelativeChange(next, t)
			if err != nil {
				return componentError(w.Variant(), i, core.NewSingularError(err, "convergence check"))
			}
			t = next
			trace.Change = change
			trace.Status = ws.status(change, trace.Iterations)

			ws.logger.Trace("wold component %d iteration %d change=%.3g", i+1, trace.Iterations, change)
		}

		p, err := linalg.Loading(ws.working, t)
		if err != nil {
			return componentError(w.Variant(), i, core.NewSingularError(err, "loading"))
		}
		ws.deflate(t, p)
		ws.record(trace, weight, t, p)
	}
	return nil
}
