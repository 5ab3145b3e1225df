// Package linalg provides the dense linear algebra primitives the OSC
// extractors are built from. Everything here is backed by gonum; nothing
// inverts a matrix by hand.
package linalg

import (
	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
)

// machineEpsilon is the float64 machine epsilon, 2^-52
const machineEpsilon = 0x1p-52

// PseudoInverse returns the Moore-Penrose inverse of a computed from a thin
// SVD. Singular values at or below max(r, c)·eps·s₀ are treated as zero, so
// a matrix with no singular value above that cutoff (the zero matrix) has
// the zero c×r matrix as its inverse.
func PseudoInverse(a mat.Matrix) (*mat.Dense, error) {
	r, c := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, core.NewSingularError(core.ErrRankDeficient, "pseudo-inverse factorization")
	}
	values := svd.Values(nil)

	rank := 0
	if len(values) > 0 {
		cutoff := RankCutoff(r, c, values[0])
		for _, s := range values {
			if s > cutoff {
				rank++
			}
		}
	}
	if rank == 0 {
		return mat.NewDense(c, r, nil), nil
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	inv := make([]float64, rank)
	for i := range inv {
		inv[i] = 1 / values[i]
	}

	// A⁺ = V_k · diag(1/s) · U_kᵀ
	var scaled mat.Dense
	scaled.Mul(v.Slice(0, c, 0, rank), mat.NewDiagDense(rank, inv))

	out := mat.NewDense(c, r, nil)
	out.Mul(&scaled, u.Slice(0, r, 0, rank).T())
	return out, nil
}

// RankTolerance is the relative singular value threshold of an r×c matrix
func RankTolerance(r, c int) float64 {
	return float64(max(r, c)) * machineEpsilon
}

// RankCutoff is the singular value at or below which a direction of an
// r×c matrix with largest singular value s0 counts as numerically zero
func RankCutoff(r, c int, s0 float64) float64 {
	return RankTolerance(r, c) * s0
}

// NumericalRank counts the singular values of a above RankCutoff
func NumericalRank(a mat.Matrix) (int, error) {
	d, err := NewSVDDecomposer().Decompose(a)
	if err != nil {
		return 0, err
	}
	r, c := a.Dims()
	return d.Rank(RankTolerance(r, c)), nil
}

// SafeReciprocal is the pseudo-inverse of a scalar: 1/x, or 0 when x is 0
func SafeReciprocal(x float64) float64 {
	if x == 0 {
		return 0
	}
	return 1 / x
}
