package analysis

import (
	"testing"

	"regact/domain/core"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	matrixHash := core.MatrixHash("test-matrix")
	networkHash := core.NetworkHash("test-network")
	methods := []string{"ulm", "mlm", "wsum"}

	fp1 := NewRunFingerprint(matrixHash, networkHash, methods, 42, 100, 5, "1.0.0")
	fp2 := NewRunFingerprint(matrixHash, networkHash, methods, 42, 100, 5, "1.0.0")

	if fp1.Fingerprint != fp2.Fingerprint {
		t.Errorf("fingerprints not identical: %s vs %s", fp1.Fingerprint, fp2.Fingerprint)
	}
	if fp1.MethodPlan != "ulm,mlm,wsum" {
		t.Errorf("MethodPlan = %q", fp1.MethodPlan)
	}
}

func TestRunFingerprint_Unique(t *testing.T) {
	base := NewRunFingerprint(
		core.MatrixHash("test-matrix"),
		core.NetworkHash("test-network"),
		[]string{"ulm"}, 42, 100, 5, "1.0.0",
	)

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different matrix", NewRunFingerprint(
			core.MatrixHash("other-matrix"),
			core.NetworkHash("test-network"),
			[]string{"ulm"}, 42, 100, 5, "1.0.0",
		)},
		{"different network", NewRunFingerprint(
			core.MatrixHash("test-matrix"),
			core.NetworkHash("other-network"),
			[]string{"ulm"}, 42, 100, 5, "1.0.0",
		)},
		{"different methods", NewRunFingerprint(
			core.MatrixHash("test-matrix"),
			core.NetworkHash("test-network"),
			[]string{"mlm"}, 42, 100, 5, "1.0.0",
		)},
		{"different seed", NewRunFingerprint(
			core.MatrixHash("test-matrix"),
			core.NetworkHash("test-network"),
			[]string{"ulm"}, 43, 100, 5, "1.0.0",
		)},
		{"different times", NewRunFingerprint(
			core.MatrixHash("test-matrix"),
			core.NetworkHash("test-network"),
			[]string{"ulm"}, 42, 500, 5, "1.0.0",
		)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.fp.Fingerprint == base.Fingerprint {
				t.Errorf("fingerprint should differ for %s", tc.name)
			}
		})
	}
}

func TestRunManifest_Complete(t *testing.T) {
	manifest := NewRunManifest(
		core.RunID("test-run"),
		core.MatrixHash("test-matrix"),
		core.NetworkHash("test-network"),
		[]string{"ulm", "wsum"},
		200, 8, 12,
		42, 100, 5,
		"1.0.0",
	)

	if manifest.Fingerprint.Fingerprint == "" {
		t.Error("fingerprint not computed")
	}
	if manifest.Features != 200 || manifest.Conditions != 8 || manifest.Sources != 12 {
		t.Errorf("shape metadata = %d/%d/%d", manifest.Features, manifest.Conditions, manifest.Sources)
	}
	if err := manifest.Validate(); err != nil {
		t.Errorf("manifest validation failed: %v", err)
	}

	manifest.Methods = nil
	if err := manifest.Validate(); err == nil {
		t.Error("expected validation failure without methods")
	}
}
