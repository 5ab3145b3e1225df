package linalg

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
)

// Projector regresses vectors onto the column space of a basis B using the
// generalized inverse of BᵀB.
type Projector struct {
	basis *mat.Dense // n×k
	gram  *mat.Dense // (BᵀB)⁺, k×k
}

// NewProjector builds a projector onto the columns of basis. An all-zero
// basis spans nothing: Fit returns zero and Complement the identity.
func NewProjector(basis mat.Matrix) (*Projector, error) {
	b := mat.DenseCopyOf(basis)

	var btb mat.Dense
	btb.Mul(b.T(), b)

	gram, err := PseudoInverse(&btb)
	if err != nil {
		return nil, err
	}
	return &Projector{basis: b, gram: gram}, nil
}

// NewResponseProjector builds the projector used to regress a response out
// of score vectors. A response without spread (constant, including all
// zeros) carries no usable direction and fails with core.ErrZeroVariance.
func NewResponseProjector(y mat.Vector) (*Projector, error) {
	values := VectorData(y)
	spread := floats.Max(values) - floats.Min(values)
	scale := math.Max(math.Abs(floats.Max(values)), math.Abs(floats.Min(values)))
	if spread <= float64(len(values))*machineEpsilon*scale {
		return nil, core.NewSingularError(core.ErrZeroVariance, "response projection")
	}

	p, err := NewProjector(y)
	if err != nil {
		return nil, core.NewSingularError(err, "response projection")
	}
	return p, nil
}

// ResponseAnnihilator returns M = I − Xᵀy (yᵀXXᵀy)⁺ yᵀX, the projector that
// removes from channel space the one direction whose scores correlate
// with y. When y is orthogonal to every column of x, M is the identity.
func ResponseAnnihilator(x mat.Matrix, y mat.Vector) (*mat.Dense, error) {
	var xty mat.VecDense
	xty.MulVec(x.T(), y)
	p, err := NewProjector(&xty)
	if err != nil {
		return nil, err
	}
	return p.Complement(), nil
}

// OrthogonalRank is the numerical rank of X·M: the dimension of the part of
// the column space of x orthogonal to y, and so the most components
// orthogonal to y that x can yield.
func OrthogonalRank(x mat.Matrix, y mat.Vector) (int, error) {
	m, err := ResponseAnnihilator(x, y)
	if err != nil {
		return 0, err
	}
	rows, cols := x.Dims()
	z := mat.NewDense(rows, cols, nil)
	z.Mul(x, m)
	return NumericalRank(z)
}

// Dim returns the length of vectors the projector acts on
func (p *Projector) Dim() int {
	r, _ := p.basis.Dims()
	return r
}

// Fit returns B(BᵀB)⁺Bᵀt, the part of t explained by the basis
func (p *Projector) Fit(t mat.Vector) *mat.VecDense {
	var bt mat.VecDense
	bt.MulVec(p.basis.T(), t)

	var coef mat.VecDense
	coef.MulVec(p.gram, &bt)

	fit := mat.NewVecDense(p.Dim(), nil)
	fit.MulVec(p.basis, &coef)
	return fit
}

// Residual returns t − B(BᵀB)⁺Bᵀt, the part of t orthogonal to the basis
func (p *Projector) Residual(t mat.Vector) *mat.VecDense {
	fit := p.Fit(t)
	out := mat.NewVecDense(p.Dim(), nil)
	out.SubVec(t, fit)
	return out
}

// Complement returns the n×n orthogonal projector I − B(BᵀB)⁺Bᵀ
func (p *Projector) Complement() *mat.Dense {
	n := p.Dim()

	var bg mat.Dense
	bg.Mul(p.basis, p.gram)

	hat := mat.NewDense(n, n, nil)
	hat.Mul(&bg, p.basis.T())

	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := -hat.At(i, j)
			if i == j {
				v += 1
			}
			out.Set(i, j, v)
		}
	}
	return out
}
