package osc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"gosc/adapters/linalg"
	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
	"gosc/internal"
	"gosc/ports"
)

// Extractor removes components from a workspace one at a time
type Extractor interface {
	Variant() domainOSC.Variant
	Extract(ws *workspace) error
}

// Engine dispatches corrections to the registered extractors
type Engine struct {
	extractors map[domainOSC.Variant]Extractor
	logger     *internal.Logger
}

var _ ports.CorrectorPort = (*Engine)(nil)

// NewEngine creates an engine with all variants backed by the given decomposer
func NewEngine(decomposer ports.DecomposerPort, logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	e := &Engine{
		extractors: make(map[domainOSC.Variant]Extractor),
		logger:     logger,
	}
	e.register(NewWold(decomposer))
	e.register(NewSjoblom(decomposer))
	e.register(NewFearn(decomposer))
	return e
}

// NewDefaultEngine creates an engine using the gonum SVD and a silent logger
func NewDefaultEngine() *Engine {
	return NewEngine(linalg.NewSVDDecomposer(), internal.NewNopLogger())
}

func (e *Engine) register(x Extractor) {
	e.extractors[x.Variant()] = x
}

// Variants lists the variants the engine can run
func (e *Engine) Variants() []domainOSC.Variant {
	out := make([]domainOSC.Variant, 0, len(e.extractors))
	for _, v := range domainOSC.AllVariants() {
		if _, ok := e.extractors[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Correct removes params.Components components orthogonal to y from x.
// Neither x nor y is modified.
func (e *Engine) Correct(x mat.Matrix, y mat.Vector, params domainOSC.Params) (*domainOSC.Result, error) {
	if x == nil || y == nil {
		return nil, core.NewParameterError("input", "measurement matrix and response are required")
	}
	rows, cols := x.Dims()
	if y.Len() != rows {
		return nil, core.NewDimensionError("response length", rows, y.Len())
	}
	if err := checkFinite(x, y); err != nil {
		return nil, err
	}
	if err := params.Validate(rows, cols); err != nil {
		return nil, err
	}

	extractor, ok := e.extractors[params.Variant]
	if !ok {
		return nil, core.NewParameterError("variant", fmt.Sprintf("%q is not registered", params.Variant))
	}

	response, err := linalg.NewResponseProjector(y)
	if err != nil {
		return nil, err
	}

	if params.Components == 0 {
		e.logger.Debug("%s: no components requested, returning input unchanged", params.Variant)
		return identityResult(x, params.Variant), nil
	}

	ws := newWorkspace(x, y, response, params, e.logger)
	if err := extractor.Extract(ws); err != nil {
		return nil, err
	}

	result, err := finalize(ws)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", params.Variant, err)
	}

	e.logger.Debug("%s: removed %d of %d components, R²=%.2f angle=%.2f",
		params.Variant, result.NumComponents(), cols, result.R2, result.Angle)
	return result, nil
}

// checkFinite rejects NaN and infinite entries
func checkFinite(x mat.Matrix, y mat.Vector) error {
	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := x.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return core.NewParameterError("x", fmt.Sprintf("entry (%d, %d) is not finite", i, j))
			}
		}
		if v := y.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewParameterError("y", fmt.Sprintf("entry %d is not finite", i))
		}
	}
	return nil
}
