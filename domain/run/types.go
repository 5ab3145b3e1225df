package run

import (
	"gosc/domain/core"
	domainOSC "gosc/domain/osc"
)

// CodeVersion is recorded in every fingerprint so that results computed by
// a different engine revision never compare equal
const CodeVersion = "1.0.0"

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	InputHash   core.Hash        `json:"input_hash"`
	Params      domainOSC.Params `json:"params"`
	CodeVersion string           `json:"code_version"`
	Fingerprint core.Hash        `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(inputHash core.Hash, params domainOSC.Params, codeVersion string) RunFingerprint {
	fields := params.Fields()
	fields["code_version"] = codeVersion

	return RunFingerprint{
		InputHash:   inputHash,
		Params:      params,
		CodeVersion: codeVersion,
		Fingerprint: core.ComputeFingerprint(inputHash, fields),
	}
}
