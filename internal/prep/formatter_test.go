package prep

import (
	"testing"

	"regact/domain/core"
	"regact/domain/omics"
)

func TestFormat_DefaultsAndLikelihoodFolding(t *testing.T) {
	tbl, err := omics.NewTable(
		omics.Column{Name: "tf", Strings: []string{"tf1", "tf1", "tf2"}},
		omics.Column{Name: "gene", Strings: []string{"g1", "g2", "g1"}},
		omics.Column{Name: "mor", Numbers: []float64{1, -1, 0.5}},
		omics.Column{Name: "confidence", Numbers: []float64{0.5, 1, 2}},
	)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	f := NetworkFormatter{Columns: omics.ColumnMap{
		Source: "tf", Target: "gene", Weight: "mor", Likelihood: "confidence",
	}}
	net, err := f.Format(tbl)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if len(net.Edges) != 3 {
		t.Fatalf("edges = %d, want 3", len(net.Edges))
	}
	// Edges come back sorted by (source, target); likelihood is folded into
	// the weight and reset to 1.
	want := []omics.Edge{
		{Source: "tf1", Target: "g1", Weight: 0.5, Likelihood: 1},
		{Source: "tf1", Target: "g2", Weight: -1, Likelihood: 1},
		{Source: "tf2", Target: "g1", Weight: 1, Likelihood: 1},
	}
	for i, w := range want {
		if net.Edges[i] != w {
			t.Errorf("edge %d = %+v, want %+v", i, net.Edges[i], w)
		}
	}
}

func TestFormat_MissingWeightColumnDefaultsToOne(t *testing.T) {
	tbl, _ := omics.NewTable(
		omics.Column{Name: "source", Strings: []string{"tf1"}},
		omics.Column{Name: "target", Strings: []string{"g1"}},
	)
	net, err := NetworkFormatter{}.Format(tbl)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if net.Edges[0].Weight != 1 || net.Edges[0].Likelihood != 1 {
		t.Errorf("defaults not applied: %+v", net.Edges[0])
	}
}

func TestFormat_Idempotent(t *testing.T) {
	tbl, _ := omics.NewTable(
		omics.Column{Name: "source", Strings: []string{"tf1", "tf1", "tf2"}},
		omics.Column{Name: "target", Strings: []string{"g2", "g1", "g3"}},
		omics.Column{Name: "weight", Numbers: []float64{2, -1, 0.25}},
		omics.Column{Name: "likelihood", Numbers: []float64{0.5, 1, 1}},
	)
	once, err := NetworkFormatter{}.Format(tbl)
	if err != nil {
		t.Fatalf("first Format: %v", err)
	}
	twice, err := NetworkFormatter{}.Format(omics.TableFromEdges(once.Edges))
	if err != nil {
		t.Fatalf("second Format: %v", err)
	}
	if once.Fingerprint() != twice.Fingerprint() {
		t.Errorf("formatting canonical output changed it:\n%+v\nvs\n%+v", once.Edges, twice.Edges)
	}
}

func TestFormat_SchemaErrors(t *testing.T) {
	missing, _ := omics.NewTable(
		omics.Column{Name: "target", Strings: []string{"g1"}},
	)
	if _, err := (NetworkFormatter{}).Format(missing); !core.IsSchemaError(err) {
		t.Errorf("missing source column: got %v", err)
	}

	empty, _ := omics.NewTable(
		omics.Column{Name: "source", Strings: []string{"tf1", " "}},
		omics.Column{Name: "target", Strings: []string{"g1", "g2"}},
	)
	if _, err := (NetworkFormatter{}).Format(empty); !core.IsSchemaError(err) {
		t.Errorf("empty source value: got %v", err)
	}

	wrongType, _ := omics.NewTable(
		omics.Column{Name: "source", Strings: []string{"tf1"}},
		omics.Column{Name: "target", Strings: []string{"g1"}},
		omics.Column{Name: "weight", Strings: []string{"heavy"}},
	)
	if _, err := (NetworkFormatter{}).Format(wrongType); !core.IsSchemaError(err) {
		t.Errorf("non-numeric weight column: got %v", err)
	}
}

func TestFormat_DuplicateEdges(t *testing.T) {
	identical, _ := omics.NewTable(
		omics.Column{Name: "source", Strings: []string{"tf1", "tf1"}},
		omics.Column{Name: "target", Strings: []string{"g1", "g1"}},
		omics.Column{Name: "weight", Numbers: []float64{1, 1}},
	)
	net, err := NetworkFormatter{}.Format(identical)
	if err != nil {
		t.Fatalf("identical duplicates must collapse, got %v", err)
	}
	if len(net.Edges) != 1 {
		t.Errorf("edges = %d, want 1", len(net.Edges))
	}

	conflicting, _ := omics.NewTable(
		omics.Column{Name: "source", Strings: []string{"tf1", "tf1"}},
		omics.Column{Name: "target", Strings: []string{"g1", "g1"}},
		omics.Column{Name: "weight", Numbers: []float64{1, -1}},
	)
	if _, err := (NetworkFormatter{}).Format(conflicting); !core.IsSchemaError(err) {
		t.Errorf("conflicting duplicates must fail, got %v", err)
	}
}
