package osc

import (
	"gonum.org/v1/gonum/mat"

	"gosc/adapters/linalg"
	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
	"gosc/ports"
)

// Fearn extracts components following Fearn (2000). X is projected with
//
//	M = I − Xᵀy (yᵀXXᵀy)⁺ yᵀX
//
// which removes the one direction of channel space correlated with y (M is
// the identity when no column of X correlates with y), and the residual
// Z = X·M is decomposed once. Component i starts from the
// i-th singular pair of Z and is refined by a fixed-point loop on its
// weight. X is never deflated.
type Fearn struct {
	decomposer ports.DecomposerPort
}

// NewFearn creates a Fearn extractor
func NewFearn(decomposer ports.DecomposerPort) *Fearn {
	return &Fearn{decomposer: decomposer}
}

// Variant identifies the extractor
func (f *Fearn) Variant() domainOSC.Variant {
	return domainOSC.VariantFearn
}

// Extract fills the workspace with params.Components components
func (f *Fearn) Extract(ws *workspace) error {
	x := ws.original

	m, err := linalg.ResponseAnnihilator(x, ws.y)
	if err != nil {
		return componentError(f.Variant(), 0, core.NewSingularError(err, "orthogonal projector"))
	}

	z := mat.NewDense(ws.rows, ws.cols, nil)
	z.Mul(x, m)
	d, err := f.decomposer.Decompose(z)
	if err != nil {
		return componentError(f.Variant(), 0, err)
	}

	rank := d.Rank(linalg.RankTolerance(ws.rows, ws.cols))

	for i := 0; i < ws.params.Components; i++ {
		if i >= rank {
			return componentError(f.Variant(), i, core.NewSingularError(core.ErrRankDeficient, "orthogonal decomposition"))
		}
		s := d.Values[i]

		weight := linalg.Column(d.V, i)
		t := linalg.Column(d.U, i)
		t.ScaleVec(s, t)

		trace := domainOSC.ComponentTrace{Index: i, Status: domainOSC.StatusRunning, SingularValue: s}
		for trace.Status == domainOSC.StatusRunning {
			trace.Iterations++
			if trace.Iterations > 1 {
				t = ws.project(x, weight)
			}

			p, err := linalg.Loading(x, t)
			if err != nil {
				return componentError(f.Variant(), i, core.NewSingularError(err, "loading"))
			}
			next := ws.project(m, p)
			if err := linalg.Normalize(next); err != nil {
				return componentError(f.Variant(), i, core.NewSingularError(err, "weight normalization"))
			}

			change, err := linalg.RelativeChange(next, weight)
			if err != nil {
				return componentError(f.Variant(), i, core.NewSingularError(err, "convergence check"))
			}
			weight = next
			trace.Change = change
			trace.Status = ws.status(change, trace.Iterations)

			ws.logger.Trace("fearn component %d iteration %d change=%.3g", i+1, trace.Iterations, change)
		}

		t = ws.project(x, weight)
		p, err := linalg.Loading(x, t)
		if err != nil {
			return componentError(f.Variant(), i, core.NewSingularError(err, "loading"))
		}
		ws.record(trace, weight, t, p)
	}
	return nil
}
