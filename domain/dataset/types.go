package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
)

// Spectra is the canonical input of a correction: one measurement row per
// sample, aligned with one response value per sample.
type Spectra struct {
	// Core data
	X *mat.Dense    // rows=samples, cols=channels
	Y *mat.VecDense // response, one value per sample

	// Labels
	SampleIDs []core.SampleID
	Channels  []core.ChannelKey
	Response  string // response column name

	// Source metadata
	Source    string // file path or generator name
	CreatedAt core.Timestamp
}

// Dims returns the number of samples and channels
func (s *Spectra) Dims() (samples, channels int) {
	if s.X == nil {
		return 0, 0
	}
	return s.X.Dims()
}

// Validate checks that matrix, response and labels agree in size
func (s *Spectra) Validate() error {
	if s.X == nil || s.Y == nil {
		return fmt.Errorf("spectra require both a measurement matrix and a response")
	}
	rows, cols := s.X.Dims()
	if s.Y.Len() != rows {
		return core.NewDimensionError("response length", rows, s.Y.Len())
	}
	if len(s.SampleIDs) != 0 && len(s.SampleIDs) != rows {
		return core.NewDimensionError("sample ids", rows, len(s.SampleIDs))
	}
	if len(s.Channels) != 0 && len(s.Channels) != cols {
		return core.NewDimensionError("channel keys", cols, len(s.Channels))
	}
	return nil
}
