package analysis

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"regact/domain/core"
)

// RunFingerprint pins everything that determines a run's output, so replaying
// with the same tuple must reproduce results bit for bit.
type RunFingerprint struct {
	MatrixHash  core.MatrixHash  `json:"matrix_hash"`
	NetworkHash core.NetworkHash `json:"network_hash"`
	MethodPlan  string           `json:"method_plan"`
	Seed        int64            `json:"seed"`
	Times       int              `json:"times"`
	MinSize     int              `json:"min_size"`
	CodeVersion string           `json:"code_version"`
	Fingerprint core.Hash        `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters.
func NewRunFingerprint(matrixHash core.MatrixHash, networkHash core.NetworkHash,
	methods []string, seed int64, times, minSize int, codeVersion string) RunFingerprint {

	plan := strings.Join(methods, ",")
	fingerprint := computeRunFingerprint(matrixHash, networkHash, plan, seed, times, minSize, codeVersion)

	return RunFingerprint{
		MatrixHash:  matrixHash,
		NetworkHash: networkHash,
		MethodPlan:  plan,
		Seed:        seed,
		Times:       times,
		MinSize:     minSize,
		CodeVersion: codeVersion,
		Fingerprint: fingerprint,
	}
}

func computeRunFingerprint(matrixHash core.MatrixHash, networkHash core.NetworkHash,
	plan string, seed int64, times, minSize int, codeVersion string) core.Hash {

	data := fmt.Sprintf("matrix:%s|network:%s|methods:%s|seed:%d|times:%d|minsize:%d|code:%s",
		matrixHash, networkHash, plan, seed, times, minSize, codeVersion)

	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// RunManifest is the truth source for a run: the full determinism tuple plus
// input shape metadata, recorded before any scores are stored.
type RunManifest struct {
	RunID       core.RunID       `json:"run_id"`
	MatrixHash  core.MatrixHash  `json:"matrix_hash"`
	NetworkHash core.NetworkHash `json:"network_hash"`
	Methods     []string         `json:"methods"`
	Features    int              `json:"features"`
	Conditions  int              `json:"conditions"`
	Sources     int              `json:"sources"`
	Seed        int64            `json:"seed"`
	Times       int              `json:"times"`
	MinSize     int              `json:"min_size"`
	CodeVersion string           `json:"code_version"`
	Fingerprint RunFingerprint   `json:"fingerprint"`
	CreatedAt   core.Timestamp   `json:"created_at"`
}

// NewRunManifest assembles a manifest and its fingerprint.
func NewRunManifest(
	runID core.RunID,
	matrixHash core.MatrixHash,
	networkHash core.NetworkHash,
	methods []string,
	features, conditions, sources int,
	seed int64,
	times, minSize int,
	codeVersion string,
) *RunManifest {
	fingerprint := NewRunFingerprint(matrixHash, networkHash, methods, seed, times, minSize, codeVersion)

	return &RunManifest{
		RunID:       runID,
		MatrixHash:  matrixHash,
		NetworkHash: networkHash,
		Methods:     append([]string(nil), methods...),
		Features:    features,
		Conditions:  conditions,
		Sources:     sources,
		Seed:        seed,
		Times:       times,
		MinSize:     minSize,
		CodeVersion: codeVersion,
		Fingerprint: fingerprint,
		CreatedAt:   core.Now(),
	}
}

// Validate checks if the manifest is complete.
func (m *RunManifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if m.MatrixHash == "" {
		return core.NewValidationError("run_manifest", "matrix_hash cannot be empty")
	}
	if m.NetworkHash == "" {
		return core.NewValidationError("run_manifest", "network_hash cannot be empty")
	}
	if len(m.Methods) == 0 {
		return core.NewValidationError("run_manifest", "methods cannot be empty")
	}
	if m.CodeVersion == "" {
		return core.NewValidationError("run_manifest", "code_version cannot be empty")
	}
	return nil
}
