package ports

import (
	"context"

	"gosc/domain/dataset"
)

// SpectraReaderPort loads a measurement matrix and its response from a source
type SpectraReaderPort interface {
	ReadSpectra(ctx context.Context) (*dataset.Spectra, error)
}
