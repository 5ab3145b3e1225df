package app

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
	"gosc/internal/errors"
)

// SweepRequest asks for one correction per component count 0..MaxComponents
type SweepRequest struct {
	X      mat.Matrix
	Y      mat.Vector
	Params domainOSC.Params // Components is ignored

	// MaxComponents bounds the sweep; zero uses Params.Components
	MaxComponents int
}

// SweepPoint is one point of the retained-variance curve
type SweepPoint struct {
	Components   int     `json:"components"`
	R2           float64 `json:"r2"`
	Angle        float64 `json:"angle"`
	NonConverged int     `json:"non_converged"`
}

// SweepReport is the R² / angle curve over component counts
type SweepReport struct {
	SweepID core.ID           `json:"sweep_id"`
	Variant domainOSC.Variant `json:"variant"`
	Points  []SweepPoint      `json:"points"`
}

// Sweep runs the corrections sequentially, checking ctx between runs
func (s *CorrectionService) Sweep(ctx context.Context, req SweepRequest) (*SweepReport, error) {
	if req.X == nil || req.Y == nil {
		return nil, errors.InvalidInput("sweep needs a measurement matrix and a response")
	}
	_, cols := req.X.Dims()
	limit, err := componentRange(req.MaxComponents, req.Params.Components, cols)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{
		SweepID: core.NewID(),
		Variant: req.Params.Variant,
		Points:  make([]SweepPoint, 0, limit+1),
	}
	log := s.logger.With("sweep_id", report.SweepID.String())

	for n := 0; n <= limit; n++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Canceled(err)
		}

		params := req.Params
		params.Components = n
		r, err := s.Correct(ctx, CorrectionRequest{X: req.X, Y: req.Y, Params: params})
		if err != nil {
			return nil, errors.Wrapf(err, "sweep stopped at %d components", n)
		}

		report.Points = append(report.Points, SweepPoint{
			Components:   n,
			R2:           r.Result.R2,
			Angle:        r.Result.Angle,
			NonConverged: r.Summary.NonConverged,
		})
		log.Debug("%s n=%d R²=%.2f", req.Params.Variant, n, r.Result.R2)
	}

	return report, nil
}

// Comparison holds one report per variant that succeeded and the error
// message of every variant that did not
type Comparison struct {
	Reports  []*CorrectionReport          `json:"reports"`
	Failures map[domainOSC.Variant]string `json:"failures,omitempty"`
}

// Report returns the report of the given variant, or nil
func (c *Comparison) Report(v domainOSC.Variant) *CorrectionReport {
	for _, r := range c.Reports {
		if r.Result.Variant == v {
			return r
		}
	}
	return nil
}

// Compare runs every variant of the corrector on the same input, one after
// the other. The call fails only if it is canceled or no variant succeeds.
func (s *CorrectionService) Compare(ctx context.Context, x mat.Matrix, y mat.Vector, params domainOSC.Params) (*Comparison, error) {
	cmp := &Comparison{Failures: make(map[domainOSC.Variant]string)}

	var firstErr error
	for _, v := range s.corrector.Variants() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Canceled(err)
		}

		p := params
		p.Variant = v
		r, err := s.Correct(ctx, CorrectionRequest{X: x, Y: y, Params: p})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			cmp.Failures[v] = err.Error()
			continue
		}
		cmp.Reports = append(cmp.Reports, r)
	}

	if len(cmp.Reports) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return cmp, nil
}
