package run

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
)

func testInput() (*mat.Dense, *mat.VecDense) {
	x := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewVecDense(3, []float64{1, 0, -1})
	return x, y
}

func TestRunFingerprint_Deterministic(t *testing.T) {
	x, y := testInput()
	params := domainOSC.DefaultParams(domainOSC.VariantWold)
	inputHash := core.ComputeMatrixHash(x, y)

	// Generate fingerprint twice with identical inputs
	fp1 := NewRunFingerprint(inputHash, params, CodeVersion)
	fp2 := NewRunFingerprint(core.ComputeMatrixHash(x, y), params, CodeVersion)

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("Fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.InputHash != inputHash {
		t.Errorf("InputHash mismatch: %s vs %s", fp1.InputHash, inputHash)
	}
	if fp1.Params != params {
		t.Errorf("Params mismatch: %+v vs %+v", fp1.Params, params)
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	x, y := testInput()
	inputHash := core.ComputeMatrixHash(x, y)
	params := domainOSC.DefaultParams(domainOSC.VariantWold)
	base := NewRunFingerprint(inputHash, params, CodeVersion)

	fewer := params
	fewer.Components = 1
	fearn := params
	fearn.Variant = domainOSC.VariantFearn
	y2 := mat.VecDenseCopyOf(y)
	y2.SetVec(0, 2)

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different input", NewRunFingerprint(core.ComputeMatrixHash(x, y2), params, CodeVersion)},
		{"different components", NewRunFingerprint(inputHash, fewer, CodeVersion)},
		{"different variant", NewRunFingerprint(inputHash, fearn, CodeVersion)},
		{"different code version", NewRunFingerprint(inputHash, params, "0.9.0")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("Fingerprint should be different for %s", tc.name)
			}
		})
	}
}

func TestCorrectionManifest_Complete(t *testing.T) {
	x, y := testInput()
	params := domainOSC.DefaultParams(domainOSC.VariantSjoblom)
	params.Components = 1
	result := &domainOSC.Result{
		Variant: domainOSC.VariantSjoblom,
		R2:      62.5,
		Angle:   90,
		Components: []domainOSC.ComponentTrace{
			{Index: 0, Status: domainOSC.StatusConverged, Iterations: 4},
		},
	}

	runID := core.NewRunID()
	manifest := NewCorrectionManifest(runID, x, y, params, result)

	if manifest.RunID != runID {
		t.Errorf("RunID not set correctly")
	}
	if manifest.Variant != domainOSC.VariantSjoblom {
		t.Errorf("Variant not set correctly")
	}
	if manifest.Rows != 3 || manifest.Cols != 2 {
		t.Errorf("Dims not set correctly: %dx%d", manifest.Rows, manifest.Cols)
	}
	if manifest.Components != 1 || manifest.Converged != 1 {
		t.Errorf("Component counts not set correctly: %d/%d", manifest.Converged, manifest.Components)
	}
	if manifest.R2 != 62.5 || manifest.Angle != 90 {
		t.Errorf("Metrics not copied from result")
	}
	if manifest.Fingerprint.Fingerprint.IsEmpty() {
		t.Errorf("Fingerprint not computed")
	}

	if err := manifest.Validate(); err != nil {
		t.Errorf("Manifest validation failed: %v", err)
	}

	again := NewCorrectionManifest(core.NewRunID(), x, y, params, result)
	if !manifest.SameComputation(again) {
		t.Errorf("Manifests over the same input and params should share a fingerprint")
	}
}

func TestCorrectionManifest_Validate(t *testing.T) {
	x, y := testInput()
	params := domainOSC.DefaultParams(domainOSC.VariantFearn)

	tests := []struct {
		name   string
		mutate func(m *CorrectionManifest)
	}{
		{"empty run id", func(m *CorrectionManifest) { m.RunID = "" }},
		{"bad variant", func(m *CorrectionManifest) { m.Variant = "pca" }},
		{"empty input hash", func(m *CorrectionManifest) { m.InputHash = "" }},
		{"too many components", func(m *CorrectionManifest) { m.Components = 3 }},
		{"r2 out of range", func(m *CorrectionManifest) { m.R2 = 101 }},
		{"zero timestamp", func(m *CorrectionManifest) { m.CreatedAt = core.Timestamp{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewCorrectionManifest(core.NewRunID(), x, y, params, &domainOSC.Result{R2: 100, Angle: 90})
			tt.mutate(m)
			err := m.Validate()
			if !errors.Is(err, core.ErrInvalidManifest) {
				t.Errorf("Expected ErrInvalidManifest, got %v", err)
			}
		})
	}
}
