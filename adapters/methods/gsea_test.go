package methods

import (
	"context"
	"math"
	"testing"

	"regact/domain/core"
	"regact/domain/omics"
	"regact/domain/score"
)

func gseaMatrix() *omics.Matrix {
	return &omics.Matrix{
		Features:   []string{"g1", "g2", "g3", "g4"},
		Conditions: []string{"c1"},
		Values:     [][]float64{{5}, {3}, {2}, {1}},
	}
}

func TestGSEA_HandComputedEnrichmentScores(t *testing.T) {
	cases := []struct {
		name    string
		targets []string
		weights []float64
		want    float64
	}{
		// Members at ranks 1 and 3, equal weight. Running sum peaks at +0.5
		// after the first hit and never dips lower.
		{"top heavy", []string{"g1", "g3"}, []float64{1, 1}, 0.5},
		// Members at ranks 2 and 4: the leading miss drives the extreme to -0.5.
		{"bottom heavy", []string{"g2", "g4"}, []float64{1, 1}, -0.5},
		// Unequal weights tilt the first step to 3/4.
		{"weighted", []string{"g1", "g3"}, []float64{3, 1}, 0.75},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sources := make([]string, len(tc.targets))
			for i := range sources {
				sources[i] = "tf"
			}
			network := networkTable(sources, tc.targets, tc.weights)
			opts := DefaultOptions()
			opts.MinSize = 0
			opts.Times = 10

			tbl, err := RunGSEA(context.Background(), gseaMatrix(), network, opts)
			if err != nil {
				t.Fatalf("RunGSEA: %v", err)
			}
			rec, ok := tbl.Lookup(score.StatGSEA, "tf", "c1")
			if !ok {
				t.Fatal("missing gsea record")
			}
			if !approxEqual(rec.Score, tc.want, 1e-12) {
				t.Errorf("ES = %g, want %g", rec.Score, tc.want)
			}
		})
	}
}

// Equal values rank by feature id ascending, so a regulator whose only target
// sorts second must see a leading miss and an enrichment score of -1.
func TestGSEA_TiesBreakByFeatureID(t *testing.T) {
	matrix := &omics.Matrix{
		Features:   []string{"a", "b"},
		Conditions: []string{"c1"},
		Values:     [][]float64{{1}, {1}},
	}
	network := networkTable([]string{"tf"}, []string{"b"}, []float64{1})
	opts := DefaultOptions()
	opts.MinSize = 0
	opts.Times = 10

	tbl, err := RunGSEA(context.Background(), matrix, network, opts)
	if err != nil {
		t.Fatalf("RunGSEA: %v", err)
	}
	rec, _ := tbl.Lookup(score.StatGSEA, "tf", "c1")
	if !approxEqual(rec.Score, -1, 1e-12) {
		t.Errorf("ES = %g, want -1 under id-ascending tie order", rec.Score)
	}
}

func TestGSEA_EmitsRawAndNormalizedGroups(t *testing.T) {
	network := networkTable([]string{"tf", "tf"}, []string{"g1", "g3"}, []float64{1, 1})
	opts := DefaultOptions()
	opts.MinSize = 0

	tbl, err := RunGSEA(context.Background(), gseaMatrix(), network, opts)
	if err != nil {
		t.Fatalf("RunGSEA: %v", err)
	}
	stats := tbl.Statistics()
	if len(stats) != 2 || stats[0] != score.StatGSEA || stats[1] != score.StatNormGSEA {
		t.Fatalf("statistics = %v, want [gsea norm_gsea]", stats)
	}
	raw, _ := tbl.Lookup(score.StatGSEA, "tf", "c1")
	norm, _ := tbl.Lookup(score.StatNormGSEA, "tf", "c1")
	if raw.PValue != norm.PValue {
		t.Errorf("raw and normalized rows should share the empirical p, got %g vs %g", raw.PValue, norm.PValue)
	}
	if raw.PValue <= 0 || raw.PValue > 1 {
		t.Errorf("p out of (0,1]: %g", raw.PValue)
	}
}

func TestGSEA_ZeroMemberRegulatorScoresNaN(t *testing.T) {
	network := networkTable(
		[]string{"tf", "orphan"},
		[]string{"g1", "gX"},
		[]float64{1, 1},
	)
	opts := DefaultOptions()
	opts.MinSize = 0
	opts.Times = 10

	tbl, err := RunGSEA(context.Background(), gseaMatrix(), network, opts)
	if err != nil {
		t.Fatalf("RunGSEA: %v", err)
	}
	rec, _ := tbl.Lookup(score.StatGSEA, "orphan", "c1")
	if !math.IsNaN(rec.Score) || !math.IsNaN(rec.PValue) {
		t.Errorf("orphan gsea = (%g, %g), want NaN cell", rec.Score, rec.PValue)
	}
}

func TestGSEA_WorkerCountDoesNotChangeResults(t *testing.T) {
	network := networkTable([]string{"tf", "tf"}, []string{"g1", "g3"}, []float64{1, 1})
	base := DefaultOptions()
	base.MinSize = 0
	base.Workers = 1

	ref, err := RunGSEA(context.Background(), gseaMatrix(), network, base)
	if err != nil {
		t.Fatalf("workers=1: %v", err)
	}
	opts := base
	opts.Workers = 4
	got, err := RunGSEA(context.Background(), gseaMatrix(), network, opts)
	if err != nil {
		t.Fatalf("workers=4: %v", err)
	}
	if ref.Fingerprint() != got.Fingerprint() {
		t.Error("worker count changed the permutation null")
	}
}

func TestGSEA_RejectsDegenerateTimes(t *testing.T) {
	network := networkTable([]string{"tf"}, []string{"g1"}, []float64{1})
	opts := DefaultOptions()
	opts.MinSize = 0
	opts.Times = 1

	_, err := RunGSEA(context.Background(), gseaMatrix(), network, opts)
	if !core.IsValidationError(err) {
		t.Fatalf("times=1 should be a validation error, got %v", err)
	}
}
