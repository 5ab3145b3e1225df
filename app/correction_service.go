package app

import (
	"context"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
	"gosc/domain/dataset"
	domainOSC "gosc/domain/osc"
	"gosc/domain/run"
	"gosc/internal"
	"gosc/internal/errors"
	"gosc/internal/profiling"
	"gosc/ports"
)

// CorrectionService runs orthogonal signal corrections with an audit
// manifest, summary statistics and metrics
type CorrectionService struct {
	corrector ports.CorrectorPort
	exporter  ports.ResultExporterPort
	recorder  *Recorder
	profiler  *profiling.SpectraProfiler
	logger    *internal.Logger
}

// CorrectionRequest defines the inputs of one correction
type CorrectionRequest struct {
	X      mat.Matrix
	Y      mat.Vector
	Params domainOSC.Params
	RunID  core.RunID // optional, will be generated if empty
}

// CorrectionSummary condenses the per-component traces
type CorrectionSummary struct {
	AngleMean      float64 `json:"angle_mean"`
	AngleStdDev    float64 `json:"angle_std_dev"`
	IterationsMean float64 `json:"iterations_mean"`
	IterationsMax  float64 `json:"iterations_max"`
	NonConverged   int     `json:"non_converged"`
}

// CorrectionReport contains the complete output of a correction
type CorrectionReport struct {
	RunID    core.RunID              `json:"run_id"`
	Result   *domainOSC.Result       `json:"-"`
	Manifest *run.CorrectionManifest `json:"manifest"`
	Summary  CorrectionSummary       `json:"summary"`

	// set by CorrectDataset
	Spectra *dataset.Spectra          `json:"-"`
	Profile *profiling.SpectraProfile `json:"profile,omitempty"`

	RuntimeMs int64 `json:"runtime_ms"`
}

// NewCorrectionService creates a correction service. exporter and recorder
// may be nil.
func NewCorrectionService(corrector ports.CorrectorPort, exporter ports.ResultExporterPort, recorder *Recorder, logger *internal.Logger) *CorrectionService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &CorrectionService{
		corrector: corrector,
		exporter:  exporter,
		recorder:  recorder,
		profiler:  profiling.NewSpectraProfiler(),
		logger:    logger,
	}
}

// Variants lists the variants of the underlying corrector
func (s *CorrectionService) Variants() []domainOSC.Variant {
	return s.corrector.Variants()
}

// Correct runs one correction and builds its report
func (s *CorrectionService) Correct(ctx context.Context, req CorrectionRequest) (*CorrectionReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Canceled(err)
	}
	if req.X == nil || req.Y == nil {
		return nil, errors.InvalidInput("correction needs a measurement matrix and a response")
	}
	startTime := time.Now()

	runID := req.RunID
	if core.ID(runID).IsEmpty() {
		runID = core.NewRunID()
	}
	log := s.logger.With("run_id", runID.String()).With("variant", req.Params.Variant.String())

	result, err := s.corrector.Correct(req.X, req.Y, req.Params)
	if err != nil {
		wrapped := errors.Wrapf(err, "%s correction failed", req.Params.Variant)
		s.recorder.ObserveFailure(req.Params.Variant, wrapped)
		if core.IsValidationError(err) {
			log.Warn("correction rejected [%s]: %v", errors.GetCode(wrapped), err)
		} else {
			log.Error("correction failed [%s]: %v", errors.GetCode(wrapped), err)
		}
		return nil, wrapped
	}

	manifest := run.NewCorrectionManifest(runID, req.X, req.Y, req.Params, result)
	if err := manifest.Validate(); err != nil {
		return nil, errors.Wrap(err, "correction manifest is incomplete")
	}

	summary, err := summarize(result)
	if err != nil {
		return nil, errors.Wrap(err, "failed to summarize components")
	}

	s.recorder.ObserveResult(result)

	report := &CorrectionReport{
		RunID:     runID,
		Result:    result,
		Manifest:  manifest,
		Summary:   summary,
		RuntimeMs: time.Since(startTime).Milliseconds(),
	}

	log.Info("removed %d components: R²=%.2f%% angle=%.2f° (%d not converged)",
		result.NumComponents(), result.R2, result.Angle, summary.NonConverged)
	return report, nil
}

// CorrectDataset loads spectra from a reader and corrects them
func (s *CorrectionService) CorrectDataset(ctx context.Context, reader ports.SpectraReaderPort, params domainOSC.Params) (*CorrectionReport, error) {
	spectra, err := reader.ReadSpectra(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Canceled(err)
		}
		return nil, errors.Wrap(err, "failed to load spectra")
	}
	if err := spectra.Validate(); err != nil {
		return nil, errors.Wrap(err, "loaded spectra are inconsistent")
	}

	rows, cols := spectra.Dims()
	s.logger.Debug("loaded %d samples × %d channels from %s", rows, cols, spectra.Source)

	profile, err := s.profiler.Profile(spectra)
	if err != nil {
		return nil, errors.Wrap(err, "failed to profile spectra")
	}
	if constant := profile.ConstantChannels(); len(constant) > 0 {
		s.logger.Warn("%d of %d channels are constant: %v", len(constant), cols, constant)
	}

	report, err := s.Correct(ctx, CorrectionRequest{X: spectra.X, Y: spectra.Y, Params: params})
	if err != nil {
		return nil, err
	}
	report.Spectra = spectra
	report.Profile = profile
	return report, nil
}

// Export writes a report through the configured exporter
func (s *CorrectionService) Export(ctx context.Context, path string, report *CorrectionReport) error {
	if s.exporter == nil {
		return errors.InternalError("no result exporter configured")
	}
	if report == nil || report.Result == nil {
		return errors.InvalidInput("nothing to export")
	}
	spectra := report.Spectra
	if spectra == nil {
		spectra = &dataset.Spectra{}
	}
	if err := s.exporter.Export(ctx, path, spectra, report.Result, report.Manifest); err != nil {
		return errors.Wrapf(err, "failed to export run %s", report.RunID)
	}
	return nil
}

// summarize computes summary statistics over the component traces
func summarize(result *domainOSC.Result) (CorrectionSummary, error) {
	summary := CorrectionSummary{AngleMean: result.Angle}
	if result.NumComponents() == 0 {
		return summary, nil
	}

	angles := stats.Float64Data(result.Angles())
	iterations := stats.Float64Data(result.Iterations())

	var err error
	if summary.AngleStdDev, err = angles.StandardDeviation(); err != nil {
		return summary, err
	}
	if summary.IterationsMean, err = iterations.Mean(); err != nil {
		return summary, err
	}
	if summary.IterationsMax, err = iterations.Max(); err != nil {
		return summary, err
	}
	for _, c := range result.Components {
		if !c.Converged() {
			summary.NonConverged++
		}
	}
	return summary, nil
}

// componentRange resolves the sweep bound for a cols-channel input
func componentRange(limit, fallback, cols int) (int, error) {
	if limit == 0 {
		limit = fallback
	}
	if limit < 0 || limit > cols {
		return 0, errors.FromDomain(
			core.NewParameterError("max_components", fmt.Sprintf("must be in [0, %d], got %d", cols, limit)))
	}
	return limit, nil
}
