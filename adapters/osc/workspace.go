package osc

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"gosc/adapters/linalg"
	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
	"gosc/internal"
	"gosc/ports"
)

// workspace is the private state of one Correct call. The component
// matrices are allocated once for all n components and filled column by
// column in extraction order.
type workspace struct {
	// original and y belong to the caller and are never written
	original mat.Matrix
	y        mat.Vector

	working  *mat.Dense        // deflated copy owned by this call
	response *linalg.Projector // (YᵀY)⁺Yᵀ regression
	params   domainOSC.Params
	logger   *internal.Logger

	rows, cols int
	latent     int // PLS latent variables

	weights  *mat.Dense // cols×n
	scores   *mat.Dense // rows×n
	loadings *mat.Dense // cols×n
	traces   []domainOSC.ComponentTrace
}

func newWorkspace(x mat.Matrix, y mat.Vector, response *linalg.Projector, params domainOSC.Params, logger *internal.Logger) *workspace {
	rows, cols := x.Dims()
	n := params.Components
	return &workspace{
		original: x,
		working:  mat.DenseCopyOf(x),
		y:        y,
		response: response,
		params:   params,
		logger:   logger,
		rows:     rows,
		cols:     cols,
		latent:   params.LatentVariables(rows, cols),
		weights:  mat.NewDense(cols, n, nil),
		scores:   mat.NewDense(rows, n, nil),
		loadings: mat.NewDense(cols, n, nil),
		traces:   make([]domainOSC.ComponentTrace, 0, n),
	}
}

// status advances the inner loop state machine after an iteration
func (ws *workspace) status(change float64, iterations int) domainOSC.Status {
	if change <= ws.params.Tolerance {
		return domainOSC.StatusConverged
	}
	if iterations >= ws.params.MaxIter {
		return domainOSC.StatusMaxIterReached
	}
	return domainOSC.StatusRunning
}

// orthogonalize regresses y out of t. A score with nothing left of it once
// y is removed is parallel to y and cannot be an orthogonal component.
func (ws *workspace) orthogonalize(t *mat.VecDense, step string) (*mat.VecDense, error) {
	out := ws.response.Residual(t)
	if mat.Norm(out, 2) <= linalg.RankCutoff(ws.rows, ws.cols, mat.Norm(t, 2)) {
		return nil, core.NewSingularError(core.ErrDegenerateScores, step)
	}
	return out, nil
}

// orthogonalCapacity is the number of components orthogonal to y the
// original matrix can yield. Past it the working matrix only holds
// directions correlated with y, and a converged score would be y itself.
func (ws *workspace) orthogonalCapacity() (int, error) {
	capacity, err := linalg.OrthogonalRank(ws.original, ws.y)
	if err != nil {
		return 0, core.NewSingularError(err, "orthogonal rank")
	}
	ws.logger.Trace("%s: %d components orthogonal to y available", ws.params.Variant, capacity)
	return capacity, nil
}

// checkCapacity fails component i once the orthogonal subspace is used up
func checkCapacity(i, capacity int) error {
	if i < capacity {
		return nil
	}
	return core.NewSingularError(core.ErrDegenerateScores,
		fmt.Sprintf("extraction (only %d components orthogonal to y exist)", capacity))
}

// project returns m·w as a new vector
func (ws *workspace) project(m mat.Matrix, w mat.Vector) *mat.VecDense {
	r, _ := m.Dims()
	t := mat.NewVecDense(r, nil)
	t.MulVec(m, w)
	return t
}

// deflate removes the rank-one reconstruction t·pᵀ from the working matrix
func (ws *workspace) deflate(t, p mat.Vector) {
	ws.working.RankOne(ws.working, -1, t, p)
}

// record stores one component in the next free column
func (ws *workspace) record(trace domainOSC.ComponentTrace, weight, score, loading mat.Vector) {
	j := len(ws.traces)
	linalg.SetColumn(ws.weights, j, weight)
	linalg.SetColumn(ws.scores, j, score)
	linalg.SetColumn(ws.loadings, j, loading)
	ws.traces = append(ws.traces, trace)

	ws.logger.Debug("%s component %d: %s after %d iterations (change=%.3g)",
		ws.params.Variant, trace.Index+1, trace.Status, trace.Iterations, trace.Change)
}

// componentError tags an extraction failure with its component
func componentError(v domainOSC.Variant, index int, err error) error {
	return fmt.Errorf("%s component %d: %w", v, index+1, err)
}

// firstAxisScore returns x·v₁, the projection of x onto its first right
// singular vector (no centering).
func firstAxisScore(decomposer ports.DecomposerPort, x *mat.Dense) (*mat.VecDense, error) {
	d, err := decomposer.Decompose(x)
	if err != nil {
		return nil, err
	}
	if len(d.Values) == 0 || d.Values[0] == 0 {
		return nil, core.NewSingularError(core.ErrDegenerateScores, "initial principal axis")
	}
	r, _ := x.Dims()
	t := mat.NewVecDense(r, nil)
	t.MulVec(x, linalg.Column(d.V, 0))
	return t, nil
}
