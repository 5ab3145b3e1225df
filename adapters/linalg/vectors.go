package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
)

// VectorData copies the entries of v into a new slice
func VectorData(v mat.Vector) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// Column copies column j of m into a new vector
func Column(m mat.Matrix, j int) *mat.VecDense {
	r, _ := m.Dims()
	return mat.NewVecDense(r, mat.Col(nil, j, m))
}

// SetColumn writes v into column j of m
func SetColumn(m *mat.Dense, j int, v mat.Vector) {
	m.SetCol(j, VectorData(v))
}

// SumSquares returns the squared Frobenius norm of m
func SumSquares(m mat.Matrix) float64 {
	n := mat.Norm(m, 2)
	return n * n
}

// Normalize scales v to unit Euclidean norm in place. A zero vector cannot
// be normalized and yields core.ErrDegenerateWeights.
func Normalize(v *mat.VecDense) error {
	n := mat.Norm(v, 2)
	if n == 0 || math.IsNaN(n) {
		return core.ErrDegenerateWeights
	}
	v.ScaleVec(1/n, v)
	return nil
}

// RelativeChange returns sqrt(Σ(next−prev)² / Σnext²), the convergence
// measure of the inner loops. A zero next vector yields
// core.ErrDegenerateScores.
func RelativeChange(next, prev mat.Vector) (float64, error) {
	denom := mat.Dot(next, next)
	if denom == 0 || math.IsNaN(denom) {
		return 0, core.ErrDegenerateScores
	}
	var diff mat.VecDense
	diff.SubVec(next, prev)
	return math.Sqrt(mat.Dot(&diff, &diff) / denom), nil
}

// Loading regresses the columns of x on the score t: xᵀt / (tᵀt)
func Loading(x mat.Matrix, t mat.Vector) (*mat.VecDense, error) {
	tt := mat.Dot(t, t)
	if tt == 0 || math.IsNaN(tt) {
		return nil, core.ErrDegenerateScores
	}
	_, c := x.Dims()
	p := mat.NewVecDense(c, nil)
	p.MulVec(x.T(), t)
	p.ScaleVec(1/tt, p)
	return p, nil
}

// AngleDegrees returns the angle between a and b in degrees. The norm
// product goes through SafeReciprocal, so a zero vector reports 90.
func AngleDegrees(a, b mat.Vector) float64 {
	cos := mat.Dot(a, b) * SafeReciprocal(math.Sqrt(mat.Dot(a, a)*mat.Dot(b, b)))
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}
