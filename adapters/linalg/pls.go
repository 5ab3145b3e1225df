package linalg

import (
	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
)

// plsStopRatio ends the latent variable loop once the remaining
// cross-product is negligible relative to the first one.
const plsStopRatio = 1e-10

// PLS1 fits a single-response partial least squares model of y on x with up
// to k latent variables (NIPALS, no centering) and returns the regression
// coefficients b, so that x·b approximates y. With k = 1 the coefficients
// are proportional to xᵀy; with k = rank(x) they reach the least squares
// solution.
//
// k is capped at the numerical rank of x, and extraction stops early once
// x or y is exhausted: when the cross-product vanishes, or when a latent
// score's tᵀt falls to RankCutoff of the first one. Such a score lives in
// a direction x barely spans and would only amplify rounding noise into
// the coefficients. If not even the first latent variable can be formed
// (y orthogonal to every column of x) the fit fails with
// core.ErrDegenerateWeights.
func PLS1(x mat.Matrix, y mat.Vector, k int) (*mat.VecDense, error) {
	rows, cols := x.Dims()
	if y.Len() != rows {
		return nil, core.NewDimensionError("PLS response length", rows, y.Len())
	}
	if k < 1 {
		return nil, core.NewParameterError("latent variables", "must be at least 1")
	}
	rank, err := NumericalRank(x)
	if err != nil {
		return nil, core.NewSingularError(err, "partial least squares rank")
	}
	k = min(k, rank)

	e := mat.DenseCopyOf(x)
	f := mat.VecDenseCopyOf(y)

	weights := mat.NewDense(cols, max(k, 1), nil)
	loadings := mat.NewDense(cols, max(k, 1), nil)
	q := make([]float64, 0, k)

	var first, firstTT float64
	for a := 0; a < k; a++ {
		w := mat.NewVecDense(cols, nil)
		w.MulVec(e.T(), f)
		norm := mat.Norm(w, 2)
		if a == 0 {
			first = norm
		}
		if norm == 0 || norm <= plsStopRatio*first {
			break
		}
		w.ScaleVec(1/norm, w)

		t := mat.NewVecDense(rows, nil)
		t.MulVec(e, w)
		tt := mat.Dot(t, t)
		if a == 0 {
			firstTT = tt
		}
		if tt == 0 || tt <= RankCutoff(rows, cols, firstTT) {
			break
		}

		p := mat.NewVecDense(cols, nil)
		p.MulVec(e.T(), t)
		p.ScaleVec(1/tt, p)
		qa := mat.Dot(f, t) / tt

		// deflate both blocks by the latent variable just extracted
		e.RankOne(e, -1, t, p)
		f.AddScaledVec(f, -qa, t)

		SetColumn(weights, a, w)
		SetColumn(loadings, a, p)
		q = append(q, qa)
	}

	used := len(q)
	if used == 0 {
		return nil, core.NewSingularError(core.ErrDegenerateWeights, "partial least squares fit")
	}

	w := weights.Slice(0, cols, 0, used)
	p := loadings.Slice(0, cols, 0, used)

	// b = W (PᵀW)⁺ q
	var ptw mat.Dense
	ptw.Mul(p.T(), w)
	inv, err := PseudoInverse(&ptw)
	if err != nil {
		return nil, core.NewSingularError(err, "partial least squares rotation")
	}

	var rot mat.VecDense
	rot.MulVec(inv, mat.NewVecDense(used, q))

	b := mat.NewVecDense(cols, nil)
	b.MulVec(w, &rot)
	return b, nil
}
