package testkit

import (
	"context"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"gosc/adapters/linalg"
	"gosc/domain/core"
	"gosc/domain/dataset"
	"gosc/internal/synth"
	"gosc/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	config synth.Config
	data   *synth.Dataset
}

// NewTestKit creates a new test kit instance with synthetic spectra
func NewTestKit() (*TestKit, error) {
	return NewTestKitWithConfig(synth.DefaultConfig())
}

// NewTestKitWithConfig creates a test kit around a custom generator config
func NewTestKitWithConfig(cfg synth.Config) (*TestKit, error) {
	data, err := synth.Generate(cfg)
	if err != nil {
		return nil, fmt.Errorf("generate synthetic spectra: %w", err)
	}
	return &TestKit{config: cfg, data: data}, nil
}

// Dataset returns the raw generated dataset
func (t *TestKit) Dataset() *synth.Dataset {
	return t.data
}

// Spectra returns a fresh copy of the generated spectra
func (t *TestKit) Spectra() *dataset.Spectra {
	x, y := t.data.Matrix()
	_, cols := x.Dims()

	ids := make([]core.SampleID, len(t.data.SampleIDs))
	for i, id := range t.data.SampleIDs {
		ids[i] = core.SampleID(id)
	}
	channels := make([]core.ChannelKey, cols)
	for j := range channels {
		channels[j] = core.ChannelKey(t.data.Headers[j+1])
	}

	return &dataset.Spectra{
		X:         x,
		Y:         y,
		SampleIDs: ids,
		Channels:  channels,
		Response:  t.data.Headers[len(t.data.Headers)-1],
		Source:    "synthetic",
		CreatedAt: core.Now(),
	}
}

// SpectraReader returns an in-memory reader serving the generated spectra
func (t *TestKit) SpectraReader() ports.SpectraReaderPort {
	return &StaticSpectraReader{Spectra: t.Spectra()}
}

// StaticSpectraReader implements SpectraReaderPort over a fixed value
type StaticSpectraReader struct {
	Spectra *dataset.Spectra
	Err     error
}

func (r *StaticSpectraReader) ReadSpectra(ctx context.Context) (*dataset.Spectra, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Spectra, nil
}

// CountingDecomposer wraps the gonum SVD and counts Decompose calls
type CountingDecomposer struct {
	inner ports.DecomposerPort
	mu    sync.Mutex
	calls int
}

func NewCountingDecomposer() *CountingDecomposer {
	return &CountingDecomposer{inner: linalg.NewSVDDecomposer()}
}

func (d *CountingDecomposer) Decompose(a mat.Matrix) (*ports.Decomposition, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return d.inner.Decompose(a)
}

// Calls returns the number of decompositions performed so far
func (d *CountingDecomposer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// Reset clears the call counter
func (d *CountingDecomposer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = 0
}

// FailingDecomposer always returns Err
type FailingDecomposer struct {
	Err error
}

func (d *FailingDecomposer) Decompose(a mat.Matrix) (*ports.Decomposition, error) {
	return nil, d.Err
}
