package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestComputeMatrixHash_Deterministic(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewVecDense(2, []float64{0.5, -0.5})

	h1 := ComputeMatrixHash(x, y)
	h2 := ComputeMatrixHash(mat.DenseCopyOf(x), mat.VecDenseCopyOf(y))

	assert.False(t, h1.IsEmpty())
	assert.True(t, h1.Equals(h2))
}

func TestComputeMatrixHash_SensitiveToShapeAndValues(t *testing.T) {
	base := ComputeMatrixHash(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))

	reshaped := ComputeMatrixHash(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}))
	assert.NotEqual(t, base, reshaped, "shape must contribute to the hash")

	nudged := ComputeMatrixHash(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6.0000000001}))
	assert.NotEqual(t, base, nudged, "any bit change must change the hash")
}

func TestComputeFingerprint_OrderIndependent(t *testing.T) {
	base := NewHash([]byte("input"))
	a := ComputeFingerprint(base, map[string]interface{}{"variant": "wold", "components": 2, "tol": 1e-6})
	b := ComputeFingerprint(base, map[string]interface{}{"tol": 1e-6, "components": 2, "variant": "wold"})
	assert.Equal(t, a, b)

	c := ComputeFingerprint(base, map[string]interface{}{"variant": "fearn", "components": 2, "tol": 1e-6})
	assert.NotEqual(t, a, c)
}

func TestErrorHelpers(t *testing.T) {
	dim := NewDimensionError("response length", 10, 9)
	assert.True(t, IsDimensionError(dim))
	assert.True(t, IsValidationError(dim))
	assert.False(t, IsSingularError(dim))

	param := NewParameterError("tolerance", "must be positive")
	assert.True(t, IsParameterError(param))
	assert.Contains(t, param.Error(), "tolerance")

	sing := NewSingularError(ErrZeroVariance, "response projection")
	assert.True(t, IsSingularError(sing))
	assert.False(t, IsValidationError(sing))

	wrapped := fmt.Errorf("component 2: %w", NewSingularError(nil, "loading"))
	assert.True(t, IsSingularError(wrapped))
}
