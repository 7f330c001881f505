package prep

import (
	"math"
	"testing"

	"regact/domain/omics"
)

func testMatrix() *omics.Matrix {
	return &omics.Matrix{
		Features:   []string{"g1", "g2", "g3", "g4"},
		Conditions: []string{"s1", "s2"},
		Values: [][]float64{
			{2, 4},
			{-2, 0},
			{5, 1},
			{0, 3},
		},
	}
}

func TestAlign_ShapeAndOrdering(t *testing.T) {
	net := &omics.Network{Edges: []omics.Edge{
		{Source: "tfB", Target: "g3", Weight: 0.5, Likelihood: 1},
		{Source: "tfA", Target: "g1", Weight: 1, Likelihood: 1},
		{Source: "tfA", Target: "g2", Weight: -1, Likelihood: 1},
		{Source: "tfA", Target: "gX", Weight: 9, Likelihood: 1}, // unmeasured target
	}}

	a := MatrixAligner{}.Align(testMatrix(), net)

	if len(a.Sources) != 2 || a.Sources[0] != "tfA" || a.Sources[1] != "tfB" {
		t.Fatalf("sources = %v, want [tfA tfB]", a.Sources)
	}
	r, c := a.Weights.Dims()
	if r != 2 || c != 4 {
		t.Fatalf("weights dims = %dx%d, want 2x4", r, c)
	}
	if a.Weights.At(0, 0) != 1 || a.Weights.At(0, 1) != -1 || a.Weights.At(1, 2) != 0.5 {
		t.Errorf("weights misplaced: %v", a.Weights.RawMatrix().Data)
	}
	if a.Weights.At(0, 2) != 0 || a.Weights.At(0, 3) != 0 {
		t.Errorf("absent edges must be zero")
	}
	// gX is not measured, so tfA covers g1 and g2 only.
	if a.TargetCounts[0] != 2 || a.TargetCounts[1] != 1 {
		t.Errorf("target counts = %v, want [2 1]", a.TargetCounts)
	}
	if len(a.Nonzero[0]) != 2 || a.Nonzero[0][0] != 0 || a.Nonzero[0][1] != 1 {
		t.Errorf("nonzero indices = %v", a.Nonzero[0])
	}
}

func TestAlign_ZeroWeightEdgeCountsAsTarget(t *testing.T) {
	net := &omics.Network{Edges: []omics.Edge{
		{Source: "tf", Target: "g1", Weight: 1, Likelihood: 1},
		{Source: "tf", Target: "g2", Weight: -1, Likelihood: 1},
		{Source: "tf", Target: "g3", Weight: 0, Likelihood: 1},
	}}
	a := MatrixAligner{}.Align(testMatrix(), net)
	if a.TargetCounts[0] != 3 {
		t.Errorf("target count = %d, want 3 (zero-weight edge still a target)", a.TargetCounts[0])
	}
	if len(a.Nonzero[0]) != 2 {
		t.Errorf("nonzero = %v, want two entries", a.Nonzero[0])
	}
}

func TestCenteredMat(t *testing.T) {
	net := &omics.Network{Edges: []omics.Edge{
		{Source: "tf", Target: "g1", Weight: 1, Likelihood: 1},
	}}
	a := MatrixAligner{}.Align(testMatrix(), net)

	centered := a.CenteredMat(false)
	rows, cols := centered.Dims()
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += centered.At(i, j)
		}
		if math.Abs(sum) > 1e-12 {
			t.Errorf("row %d not centered, residual mean %g", i, sum/float64(cols))
		}
	}
	// The original block is untouched.
	if a.Mat.At(0, 0) != 2 {
		t.Error("centering must not mutate the aligned matrix")
	}
}

func TestPrepare_EndToEnd(t *testing.T) {
	tbl, _ := omics.NewTable(
		omics.Column{Name: "source", Strings: []string{"tf1", "tf1", "tf1", "tf2"}},
		omics.Column{Name: "target", Strings: []string{"g1", "g2", "g3", "g4"}},
		omics.Column{Name: "weight", Numbers: []float64{1, -1, 0.5, 2}},
	)
	a, err := Prepare(testMatrix(), tbl, omics.ColumnMap{}, 2)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if len(a.Sources) != 1 || a.Sources[0] != "tf1" {
		t.Errorf("sources = %v, want [tf1] after minsize=2", a.Sources)
	}
}
