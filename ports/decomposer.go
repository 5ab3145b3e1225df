package ports

import (
	"gonum.org/v1/gonum/mat"
)

// DecomposerPort factorizes a matrix as U·diag(Values)·Vᵀ
type DecomposerPort interface {
	Decompose(a mat.Matrix) (*Decomposition, error)
}

// Decomposition is a thin singular value decomposition of an r×c matrix.
// Values are sorted in decreasing order; U is r×k and V is c×k with
// k = min(r, c).
type Decomposition struct {
	Values []float64
	U      *mat.Dense
	V      *mat.Dense
}

// Rank counts singular values above rcond times the largest one
func (d *Decomposition) Rank(rcond float64) int {
	if len(d.Values) == 0 || d.Values[0] <= 0 {
		return 0
	}
	limit := rcond * d.Values[0]
	rank := 0
	for _, s := range d.Values {
		if s > limit {
			rank++
		}
	}
	return rank
}
