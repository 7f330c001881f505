package postgres

import (
	"math"
	"strings"
	"testing"

	"regact/domain/analysis"
	"regact/domain/core"
)

func sampleManifest() *analysis.RunManifest {
	return analysis.NewRunManifest(
		core.RunID("run-1"),
		core.NewMatrixHash([]byte("matrix")),
		core.NewNetworkHash([]byte("network")),
		[]string{"ulm", "wsum"},
		120, 4, 9,
		42, 1000, 5,
		"0.3.0",
	)
}

func TestRunRow_RoundTripsManifest(t *testing.T) {
	manifest := sampleManifest()
	row := rowFromManifest(manifest)

	if row.Methods != "ulm,wsum" {
		t.Errorf("methods column = %q, want comma-joined plan", row.Methods)
	}
	if row.Fingerprint != string(manifest.Fingerprint.Fingerprint) {
		t.Error("fingerprint column must carry the derived hash")
	}

	back, err := manifestFromRow(row)
	if err != nil {
		t.Fatalf("manifestFromRow: %v", err)
	}
	if back.RunID != manifest.RunID {
		t.Errorf("run id = %s, want %s", back.RunID, manifest.RunID)
	}
	if len(back.Methods) != 2 || back.Methods[0] != "ulm" || back.Methods[1] != "wsum" {
		t.Errorf("methods = %v", back.Methods)
	}
	if back.Fingerprint.Fingerprint != manifest.Fingerprint.Fingerprint {
		t.Error("fingerprint should survive the round trip")
	}
	if back.Seed != 42 || back.Times != 1000 || back.MinSize != 5 {
		t.Errorf("determinism tuple = (%d, %d, %d)", back.Seed, back.Times, back.MinSize)
	}
}

// A stored row whose parameters were edited no longer matches its
// fingerprint, and reads must refuse it rather than replay a lie.
func TestManifestFromRow_DetectsTampering(t *testing.T) {
	row := rowFromManifest(sampleManifest())
	row.Seed = 43

	_, err := manifestFromRow(row)
	if !core.IsDeterminismError(err) {
		t.Fatalf("want a determinism error for a tampered row, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "run-1") {
		t.Errorf("error should name the run: %v", err)
	}
}

func TestNullFloat_NaNTravelsAsNull(t *testing.T) {
	if toNullFloat(math.NaN()).Valid {
		t.Error("NaN must map to SQL NULL")
	}
	v := toNullFloat(2.5)
	if !v.Valid || v.Float64 != 2.5 {
		t.Errorf("finite value mangled: %+v", v)
	}
	if !math.IsNaN(fromNullFloat(toNullFloat(math.NaN()))) {
		t.Error("NULL must come back as NaN")
	}
	if fromNullFloat(v) != 2.5 {
		t.Error("finite round trip failed")
	}
}
