package osc

import (
	"gosc/adapters/linalg"
	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
	"gosc/ports"
)

// Sjoblom extracts components following Sjöblom et al. (1998). The inner
// loop derives the weight straight from the current score and removes Y
// from every new score. Once it settles, the weight is refit with a PLS
// step against the same working matrix and the refit score is
// orthogonalized to Y one final time before loading and deflation.
type Sjoblom struct {
	decomposer ports.DecomposerPort
}

// NewSjoblom creates a Sjöblom extractor
func NewSjoblom(decomposer ports.DecomposerPort) *Sjoblom {
	return &Sjoblom{decomposer: decomposer}
}

// Variant identifies the extractor
func (s *Sjoblom) Variant() domainOSC.Variant {
	return domainOSC.VariantSjoblom
}

// Extract fills the workspace with params.Components components
func (s *Sjoblom) Extract(ws *workspace) error {
	capacity, err := ws.orthogonalCapacity()
	if err != nil {
		return componentError(s.Variant(), 0, err)
	}

	for i := 0; i < ws.params.Components; i++ {
		if err := checkCapacity(i, capacity); err != nil {
			return componentError(s.Variant(), i, err)
		}
		t, err := firstAxisScore(s.decomposer, ws.working)
		if err != nil {
			return componentError(s.Variant(), i, err)
		}

		trace := domainOSC.ComponentTrace{Index: i, Status: domainOSC.StatusRunning}
		for trace.Status == domainOSC.StatusRunning {
			trace.Iterations++

			weight, err := linalg.Loading(ws.working, t)
			if err != nil {
				return componentError(s.Variant(), i, core.NewSingularError(err, "weight from score"))
			}
			if err := linalg.Normalize(weight); err != nil {
				return componentError(s.Variant(), i, core.NewSingularError(err, "weight normalization"))
			}

			next, err := ws.orthogonalize(ws.project(ws.working, weight), "score orthogonalization")
			if err != nil {
				return componentError(s.Variant(), i, err)
			}
			change, err := linalg.RelativeChange(next, t)
			if err != nil {
				return componentError(s.Variant(), i, core.NewSingularError(err, "convergence check"))
			}
			t = next
			trace.Change = change
			trace.Status = ws.status(change, trace.Iterations)

			ws.logger.Trace("sjoblom component %d iteration %d change=%.3g", i+1, trace.Iterations, change)
		}

		// second phase: refit, then orthogonalize once more
		weight, err := linalg.PLS1(ws.working, t, ws.latent)
		if err != nil {
			return componentError(s.Variant(), i, err)
		}
		if err := linalg.Normalize(weight); err != nil {
			return componentError(s.Variant(), i, core.NewSingularError(err, "refit normalization"))
		}
		t, err = ws.orthogonalize(ws.project(ws.working, weight), "refit orthogonalization")
		if err != nil {
			return componentError(s.Variant(), i, err)
		}

		p, err := linalg.Loading(ws.working, t)
		if err != nil {
			return componentError(s.Variant(), i, core.NewSingularError(err, "loading"))
		}
		ws.deflate(t, p)
		ws.record(trace, weight, t, p)
	}
	return nil
}
