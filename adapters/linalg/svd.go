package linalg

import (
	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
	"gosc/ports"
)

// SVDDecomposer implements ports.DecomposerPort with gonum's thin SVD
type SVDDecomposer struct{}

// NewSVDDecomposer creates a decomposer
func NewSVDDecomposer() *SVDDecomposer {
	return &SVDDecomposer{}
}

// Decompose factorizes a as U·diag(s)·Vᵀ
func (d *SVDDecomposer) Decompose(a mat.Matrix) (*ports.Decomposition, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, core.NewSingularError(core.ErrRankDeficient, "singular value decomposition")
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	return &ports.Decomposition{
		Values: svd.Values(nil),
		U:      &u,
		V:      &v,
	}, nil
}
