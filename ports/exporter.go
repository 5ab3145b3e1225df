package ports

import (
	"context"

	"gosc/domain/dataset"
	"gosc/domain/osc"
	"gosc/domain/run"
)

// ResultExporterPort writes a correction result for external tools
type ResultExporterPort interface {
	Export(ctx context.Context, path string, spectra *dataset.Spectra, result *osc.Result, manifest *run.CorrectionManifest) error
}
