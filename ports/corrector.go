package ports

import (
	"gonum.org/v1/gonum/mat"

	"gosc/domain/osc"
)

// CorrectorPort removes response-orthogonal variation from a measurement matrix
type CorrectorPort interface {
	// Correct runs one orthogonal signal correction. x and y are never mutated.
	Correct(x mat.Matrix, y mat.Vector, params osc.Params) (*osc.Result, error)

	// Variants lists the extraction algorithms the corrector can run
	Variants() []osc.Variant
}
