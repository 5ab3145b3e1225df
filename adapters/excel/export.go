package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"

	"gosc/domain/dataset"
	domainOSC "gosc/domain/osc"
	"gosc/domain/run"
	"gosc/internal"
	apperrors "gosc/internal/errors"
	"gosc/ports"
)

// Sheet names written by ResultExporter
const (
	SheetCorrected = "corrected"
	SheetScores    = "scores"
	SheetLoadings  = "loadings"
	SheetWeights   = "weights"
	SheetSummary   = "summary"
)

// ResultExporter writes a correction result to an xlsx workbook
type ResultExporter struct {
	logger *internal.Logger
}

var _ ports.ResultExporterPort = (*ResultExporter)(nil)

// NewResultExporter creates an exporter
func NewResultExporter(logger *internal.Logger) *ResultExporter {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &ResultExporter{logger: logger}
}

// Export writes one sheet per result matrix plus a summary sheet. The
// manifest may be nil.
func (e *ResultExporter) Export(ctx context.Context, path string, spectra *dataset.Spectra, result *domainOSC.Result, manifest *run.CorrectionManifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if spectra == nil || result == nil || result.Corrected == nil {
		return apperrors.InvalidInput("export needs spectra and a result")
	}

	rows, cols := result.Corrected.Dims()
	samples := sampleLabels(spectra, rows)
	channels := channelLabels(spectra, cols)
	components := componentLabels(result.NumComponents())

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetCorrected); err != nil {
		return err
	}
	if err := writeMatrix(f, SheetCorrected, "sample", samples, channels, result.Corrected); err != nil {
		return err
	}
	if err := writeMatrix(f, SheetScores, "sample", samples, components, result.Scores); err != nil {
		return err
	}
	if err := writeMatrix(f, SheetLoadings, "channel", channels, components, result.Loadings); err != nil {
		return err
	}
	if err := writeMatrix(f, SheetWeights, "channel", channels, components, result.Weights); err != nil {
		return err
	}
	if err := writeSummary(f, result, manifest); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.Wrapf(err, "failed to save workbook %s", path)
	}
	e.logger.Info("[ResultExporter] wrote %s (%d components)", path, result.NumComponents())
	return nil
}

// writeMatrix writes a labelled table. A nil matrix produces only the
// header row.
func writeMatrix(f *excelize.File, sheet, corner string, rowLabels, colLabels []string, m *mat.Dense) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}

	header := make([]interface{}, 0, len(colLabels)+1)
	header = append(header, corner)
	for _, c := range colLabels {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if m == nil {
		return nil
	}

	r, c := m.Dims()
	for i := 0; i < r; i++ {
		values := make([]interface{}, 0, c+1)
		values = append(values, rowLabels[i])
		for j := 0; j < c; j++ {
			values = append(values, m.At(i, j))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, result *domainOSC.Result, manifest *run.CorrectionManifest) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"variant", result.Variant.String()},
		{"components", result.NumComponents()},
		{"r2", result.R2},
		{"angle", result.Angle},
	}
	if manifest != nil {
		rows = append(rows,
			[]interface{}{"run_id", manifest.RunID.String()},
			[]interface{}{"tolerance", manifest.Params.Tolerance},
			[]interface{}{"max_iter", manifest.Params.MaxIter},
			[]interface{}{"input_hash", manifest.InputHash.String()},
			[]interface{}{"fingerprint", manifest.Fingerprint.Fingerprint.String()},
			[]interface{}{"created_at", manifest.CreatedAt.String()},
		)
	}
	rows = append(rows, []interface{}{})
	rows = append(rows, []interface{}{"component", "status", "iterations", "change", "angle", "singular_value"})
	for _, c := range result.Components {
		rows = append(rows, []interface{}{c.Index + 1, string(c.Status), c.Iterations, c.Change, c.Angle, c.SingularValue})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func sampleLabels(s *dataset.Spectra, rows int) []string {
	out := make([]string, rows)
	for i := range out {
		if i < len(s.SampleIDs) {
			out[i] = s.SampleIDs[i].String()
		} else {
			out[i] = fmt.Sprintf("row_%d", i+1)
		}
	}
	return out
}

func channelLabels(s *dataset.Spectra, cols int) []string {
	out := make([]string, cols)
	for j := range out {
		if j < len(s.Channels) {
			out[j] = s.Channels[j].String()
		} else {
			out[j] = fmt.Sprintf("ch_%d", j+1)
		}
	}
	return out
}

func componentLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("osc_%d", i+1)
	}
	return out
}
