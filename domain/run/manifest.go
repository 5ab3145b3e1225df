package run

import (
	"gonum.org/v1/gonum/mat"

	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
)

// CorrectionManifest records what a correction run consumed and produced.
// Two manifests with the same fingerprint describe the same computation.
type CorrectionManifest struct {
	RunID       core.RunID        `json:"run_id"`
	Variant     domainOSC.Variant `json:"variant"`
	Params      domainOSC.Params  `json:"params"`
	Rows        int               `json:"rows"`
	Cols        int               `json:"cols"`
	InputHash   core.Hash         `json:"input_hash"`
	Fingerprint RunFingerprint    `json:"fingerprint"`
	Components  int               `json:"components"`
	Converged   int               `json:"converged"`
	R2          float64           `json:"r2"`
	Angle       float64           `json:"angle"`
	CreatedAt   core.Timestamp    `json:"created_at"`
}

// NewCorrectionManifest creates a manifest for a finished correction
func NewCorrectionManifest(runID core.RunID, x mat.Matrix, y mat.Vector, params domainOSC.Params, result *domainOSC.Result) *CorrectionManifest {
	rows, cols := x.Dims()
	inputHash := core.ComputeMatrixHash(x, y)

	m := &CorrectionManifest{
		RunID:       runID,
		Variant:     params.Variant,
		Params:      params,
		Rows:        rows,
		Cols:        cols,
		InputHash:   inputHash,
		Fingerprint: NewRunFingerprint(inputHash, params, CodeVersion),
		CreatedAt:   core.Now(),
	}
	if result != nil {
		m.Components = result.NumComponents()
		for _, c := range result.Components {
			if c.Converged() {
				m.Converged++
			}
		}
		m.R2 = result.R2
		m.Angle = result.Angle
	}
	return m
}

// SameComputation reports whether two manifests share inputs and parameters
func (m *CorrectionManifest) SameComputation(other *CorrectionManifest) bool {
	return other != nil && m.Fingerprint.Fingerprint.Equals(other.Fingerprint.Fingerprint)
}

// Validate checks if the manifest is complete
func (m *CorrectionManifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewManifestError("run_id", "cannot be empty")
	}
	if !m.Variant.IsValid() {
		return core.NewManifestError("variant", "is not supported")
	}
	if m.InputHash.IsEmpty() {
		return core.NewManifestError("input_hash", "cannot be empty")
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return core.NewManifestError("fingerprint", "cannot be empty")
	}
	if m.Components < 0 || m.Components > m.Cols {
		return core.NewManifestError("components", "out of range")
	}
	if m.Converged > m.Components {
		return core.NewManifestError("converged", "exceeds component count")
	}
	if m.R2 < 0 || m.R2 > 100 {
		return core.NewManifestError("r2", "must be a percentage")
	}
	if m.CreatedAt.IsZero() {
		return core.NewManifestError("created_at", "cannot be empty")
	}
	return nil
}
