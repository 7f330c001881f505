package toydata

import (
	"fmt"

	"regact/internal/profiling"
)

// Profile describes a generated dataset: shape counts plus distribution
// summaries of the matrix cells and the network weights.
type Profile struct {
	Features   int               `json:"features"`
	Conditions int               `json:"conditions"`
	Regulators int               `json:"regulators"`
	Edges      int               `json:"edges"`
	Cells      profiling.Summary `json:"cells"`
	Weights    profiling.Summary `json:"weights"`
}

// Describe profiles a generated dataset.
func Describe(ds *Dataset) (Profile, error) {
	if ds == nil || ds.Matrix == nil || ds.Network == nil {
		return Profile{}, fmt.Errorf("cannot profile a nil dataset")
	}

	cells := make([]float64, 0, len(ds.Matrix.Features)*len(ds.Matrix.Conditions))
	for _, row := range ds.Matrix.Values {
		cells = append(cells, row...)
	}
	cellStats, err := profiling.Summarize(cells)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to summarize matrix cells: %w", err)
	}

	weights, ok := ds.Network.NumberColumn("weight")
	if !ok {
		return Profile{}, fmt.Errorf("network table has no weight column")
	}
	weightStats, err := profiling.Summarize(weights)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to summarize edge weights: %w", err)
	}

	sources, _ := ds.Network.StringColumn("source")
	seen := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		seen[s] = struct{}{}
	}

	return Profile{
		Features:   len(ds.Matrix.Features),
		Conditions: len(ds.Matrix.Conditions),
		Regulators: len(seen),
		Edges:      ds.Network.Rows(),
		Cells:      cellStats,
		Weights:    weightStats,
	}, nil
}
