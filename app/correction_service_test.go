package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"

	"gosc/adapters/excel"
	"gosc/adapters/osc"
	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
	"gosc/internal"
	"gosc/internal/errors"
	"gosc/internal/synth"
	"gosc/internal/testkit"
)

func newService(t *testing.T) (*CorrectionService, *Recorder) {
	t.Helper()
	recorder := NewRecorder()
	return NewCorrectionService(osc.NewDefaultEngine(), excel.NewResultExporter(nil), recorder, nil), recorder
}

func wold(n int) domainOSC.Params {
	p := domainOSC.DefaultParams(domainOSC.VariantWold)
	p.Components = n
	return p
}

func TestCorrectionService_Correct(t *testing.T) {
	svc, recorder := newService(t)
	x, y := synth.RandomDesign(10, 5, 11, 2)

	report, err := svc.Correct(context.Background(), CorrectionRequest{X: x, Y: y, Params: wold(2)})
	require.NoError(t, err)

	assert.False(t, core.ID(report.RunID).IsEmpty())
	assert.Equal(t, report.RunID, report.Manifest.RunID)
	assert.Equal(t, core.ComputeMatrixHash(x, y), report.Manifest.InputHash)
	assert.Equal(t, 2, report.Manifest.Components)
	assert.NoError(t, report.Manifest.Validate())

	assert.InDelta(t, report.Result.Angle, report.Summary.AngleMean, 1e-12)
	assert.GreaterOrEqual(t, report.Summary.IterationsMax, report.Summary.IterationsMean)
	assert.GreaterOrEqual(t, report.Summary.IterationsMean, 1.0)
	assert.Equal(t, 0, report.Summary.NonConverged)

	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.Corrections.WithLabelValues("wold", OutcomeSuccess)))
	assert.Equal(t, report.Result.R2, testutil.ToFloat64(recorder.Retained.WithLabelValues("wold")))
	assert.Equal(t, 1, testutil.CollectAndCount(recorder.Iterations))

	families, err := recorder.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCorrectionService_KeepsRunID(t *testing.T) {
	svc, _ := newService(t)
	x, y := synth.RandomDesign(10, 5, 11, 2)
	id := core.NewRunID()

	report, err := svc.Correct(context.Background(), CorrectionRequest{X: x, Y: y, Params: wold(1), RunID: id})
	require.NoError(t, err)
	assert.Equal(t, id, report.RunID)
}

func TestCorrectionService_ErrorCodes(t *testing.T) {
	svc, recorder := newService(t)
	x, y := synth.RandomDesign(10, 5, 11, 2)

	tests := []struct {
		name string
		req  CorrectionRequest
		code string
	}{
		{"dimension", CorrectionRequest{X: x, Y: mat.NewVecDense(4, nil), Params: wold(1)}, errors.CodeDimensionMismatch},
		{"parameter", CorrectionRequest{X: x, Y: y, Params: wold(9)}, errors.CodeInvalidParameter},
		{"constant response", CorrectionRequest{X: x, Y: mat.NewVecDense(10, nil), Params: wold(1)}, errors.CodeNumericalDegeneracy},
		{"missing input", CorrectionRequest{Params: wold(1)}, errors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Correct(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(recorder.Corrections.WithLabelValues("wold", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.Failures.WithLabelValues("wold", errors.CodeNumericalDegeneracy)))
}

func TestCorrectionService_FailureLogLevels(t *testing.T) {
	var buf bytes.Buffer
	svc := NewCorrectionService(osc.NewDefaultEngine(), nil, NewRecorder(), internal.NewLoggerWithWriter(internal.LogLevelWarn, &buf))
	x, y := synth.RandomDesign(10, 5, 11, 2)

	_, err := svc.Correct(context.Background(), CorrectionRequest{X: x, Y: mat.NewVecDense(4, nil), Params: wold(1)})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "correction rejected [DIMENSION_MISMATCH]")
	assert.NotContains(t, buf.String(), `"level":"error"`)

	buf.Reset()
	_, err = svc.Correct(context.Background(), CorrectionRequest{X: x, Y: y, Params: wold(5)})
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "correction failed [NUMERICAL_DEGENERACY]")
}

func TestCorrectionService_Canceled(t *testing.T) {
	svc, _ := newService(t)
	x, y := synth.RandomDesign(10, 5, 11, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Correct(ctx, CorrectionRequest{X: x, Y: y, Params: wold(1)})
	assert.Equal(t, errors.CodeCanceled, errors.GetCode(err))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = svc.Sweep(ctx, SweepRequest{X: x, Y: y, Params: wold(2)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCorrectionService_CorrectDataset(t *testing.T) {
	svc, _ := newService(t)
	kit, err := testkit.NewTestKit()
	require.NoError(t, err)

	report, err := svc.CorrectDataset(context.Background(), kit.SpectraReader(), wold(1))
	require.NoError(t, err)
	require.NotNil(t, report.Spectra)
	assert.Equal(t, "synthetic", report.Spectra.Source)
	require.NotNil(t, report.Profile)
	assert.Len(t, report.Profile.Channels, 20)
	assert.Less(t, report.Result.R2, 100.0)

	out := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, svc.Export(context.Background(), out, report))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(excel.SheetCorrected)
	require.NoError(t, err)
	assert.Equal(t, "S001", rows[1][0])
}

func TestCorrectionService_CorrectDatasetReaderError(t *testing.T) {
	svc, _ := newService(t)
	reader := &testkit.StaticSpectraReader{Err: errors.InvalidInput("row 3 column \"ch1\": \"x\" is not numeric")}

	_, err := svc.CorrectDataset(context.Background(), reader, wold(1))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestCorrectionService_ExportWithoutExporter(t *testing.T) {
	svc := NewCorrectionService(osc.NewDefaultEngine(), nil, nil, nil)
	x, y := synth.RandomDesign(10, 5, 11, 2)

	report, err := svc.Correct(context.Background(), CorrectionRequest{X: x, Y: y, Params: wold(1)})
	require.NoError(t, err)

	err = svc.Export(context.Background(), filepath.Join(t.TempDir(), "out.xlsx"), report)
	assert.Equal(t, errors.CodeInternalError, errors.GetCode(err))
}

func TestCorrectionService_Sweep(t *testing.T) {
	svc, _ := newService(t)
	x, y := synth.RandomDesign(10, 5, 11, 2)

	report, err := svc.Sweep(context.Background(), SweepRequest{X: x, Y: y, Params: wold(0), MaxComponents: 3})
	require.NoError(t, err)

	require.Len(t, report.Points, 4)
	assert.Equal(t, domainOSC.VariantWold, report.Variant)
	assert.Equal(t, SweepPoint{Components: 0, R2: 100, Angle: 90}, report.Points[0])
	for i, p := range report.Points {
		assert.Equal(t, i, p.Components)
		assert.LessOrEqual(t, p.R2, 100.0)
	}
	assert.Less(t, report.Points[1].R2, 100.0)
}

func TestCorrectionService_SweepBounds(t *testing.T) {
	svc, _ := newService(t)
	x, y := synth.RandomDesign(10, 5, 11, 2)

	_, err := svc.Sweep(context.Background(), SweepRequest{X: x, Y: y, Params: wold(0), MaxComponents: 6})
	assert.Equal(t, errors.CodeInvalidParameter, errors.GetCode(err))

	// zero bound falls back to Params.Components
	report, err := svc.Sweep(context.Background(), SweepRequest{X: x, Y: y, Params: wold(2)})
	require.NoError(t, err)
	assert.Len(t, report.Points, 3)
}

func TestCorrectionService_Compare(t *testing.T) {
	svc, recorder := newService(t)
	x, y := synth.RandomDesign(10, 5, 11, 2)

	cmp, err := svc.Compare(context.Background(), x, y, wold(2))
	require.NoError(t, err)

	require.Len(t, cmp.Reports, 3)
	assert.Empty(t, cmp.Failures)
	for _, v := range domainOSC.AllVariants() {
		r := cmp.Report(v)
		require.NotNil(t, r, v.String())
		assert.Equal(t, v, r.Manifest.Variant)
		assert.InDelta(t, 90.0, r.Result.Angle, 1.0)
	}
	assert.NotEqual(t, cmp.Report(domainOSC.VariantWold).Manifest.Fingerprint.Fingerprint,
		cmp.Report(domainOSC.VariantFearn).Manifest.Fingerprint.Fingerprint)
	assert.Equal(t, 3, testutil.CollectAndCount(recorder.Retained))
}

// fearnlessCorrector delegates to the engine except for the Fearn variant.
type fearnlessCorrector struct {
	*osc.Engine
}

func (c fearnlessCorrector) Correct(x mat.Matrix, y mat.Vector, params domainOSC.Params) (*domainOSC.Result, error) {
	if params.Variant == domainOSC.VariantFearn {
		return nil, core.NewSingularError(core.ErrRankDeficient, "orthogonal decomposition")
	}
	return c.Engine.Correct(x, y, params)
}

func TestCorrectionService_ComparePartialFailure(t *testing.T) {
	svc := NewCorrectionService(fearnlessCorrector{osc.NewDefaultEngine()}, excel.NewResultExporter(nil), NewRecorder(), nil)
	x, y := synth.RandomDesign(10, 5, 11, 2)

	cmp, err := svc.Compare(context.Background(), x, y, wold(2))
	require.NoError(t, err)
	assert.Contains(t, cmp.Failures, domainOSC.VariantFearn)
	assert.Nil(t, cmp.Report(domainOSC.VariantFearn))
	assert.NotNil(t, cmp.Report(domainOSC.VariantWold))
	assert.NotNil(t, cmp.Report(domainOSC.VariantSjoblom))
}

func TestCorrectionService_CompareBeyondOrthogonalRank(t *testing.T) {
	svc, _ := newService(t)
	x, y := synth.RandomDesign(10, 5, 11, 2)

	// only four directions of a 10×5 design are orthogonal to y
	_, err := svc.Compare(context.Background(), x, y, wold(5))
	require.Error(t, err)
	assert.Equal(t, errors.CodeNumericalDegeneracy, errors.GetCode(err))
}

func TestCorrectionService_CompareAllFail(t *testing.T) {
	svc, _ := newService(t)
	x, _ := synth.RandomDesign(10, 5, 11, 2)

	_, err := svc.Compare(context.Background(), x, mat.NewVecDense(10, nil), wold(1))
	require.Error(t, err)
	assert.Equal(t, errors.CodeNumericalDegeneracy, errors.GetCode(err))
}
