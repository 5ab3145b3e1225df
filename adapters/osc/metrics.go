package osc

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"gosc/adapters/linalg"
	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
)

// identityAngle is reported when no component was removed: nothing
// correlated with the response has been taken out of X.
const identityAngle = 90.0

// finalize computes the corrected matrix and the shared metrics from the
// recorded components.
//
//	corrected = X − X·W·(PᵀW)⁺·Pᵀ
//	R²        = 100 · Σcorrected² / ΣX²
//	angle_i   = acos(t_iᵀy / (‖t_i‖‖y‖)) in degrees
func finalize(ws *workspace) (*domainOSC.Result, error) {
	var ptw mat.Dense
	ptw.Mul(ws.loadings.T(), ws.weights)
	inv, err := linalg.PseudoInverse(&ptw)
	if err != nil {
		return nil, core.NewSingularError(err, "correction projection")
	}

	var xw, xwi mat.Dense
	xw.Mul(ws.original, ws.weights)
	xwi.Mul(&xw, inv)

	removed := mat.NewDense(ws.rows, ws.cols, nil)
	removed.Mul(&xwi, ws.loadings.T())

	corrected := mat.DenseCopyOf(ws.original)
	corrected.Sub(corrected, removed)

	total := linalg.SumSquares(ws.original)
	if total == 0 {
		return nil, core.NewSingularError(core.ErrRankDeficient, "retained variance")
	}

	angles := make([]float64, len(ws.traces))
	for i := range ws.traces {
		ws.traces[i].Angle = linalg.AngleDegrees(ws.scores.ColView(i), ws.y)
		angles[i] = ws.traces[i].Angle
	}
	mean, err := stats.Mean(angles)
	if err != nil {
		return nil, err
	}

	return &domainOSC.Result{
		Variant:    ws.params.Variant,
		Corrected:  corrected,
		Weights:    ws.weights,
		Scores:     ws.scores,
		Loadings:   ws.loadings,
		R2:         100 * linalg.SumSquares(corrected) / total,
		Angle:      mean,
		Components: ws.traces,
	}, nil
}

// identityResult is the outcome of a zero-component correction
func identityResult(x mat.Matrix, v domainOSC.Variant) *domainOSC.Result {
	return &domainOSC.Result{
		Variant:    v,
		Corrected:  mat.DenseCopyOf(x),
		R2:         100,
		Angle:      identityAngle,
		Components: []domainOSC.ComponentTrace{},
	}
}
