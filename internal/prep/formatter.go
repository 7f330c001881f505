package prep

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"regact/domain/core"
	"regact/domain/omics"
)

// NetworkFormatter normalizes an annotation table into the canonical network:
// roles resolved through the column map, missing weight/likelihood columns
// defaulted to 1, likelihood folded into the weight, duplicates collapsed.
// Formatting already-canonical output is a no-op.
type NetworkFormatter struct {
	Columns omics.ColumnMap
}

// Format validates the table against the column map and returns the canonical
// network with edges sorted by (source, target).
func (f NetworkFormatter) Format(tbl *omics.Table) (*omics.Network, error) {
	cm := f.Columns.WithDefaults()

	sources, ok := tbl.StringColumn(cm.Source)
	if !ok {
		return nil, core.NewSchemaError(cm.Source, "required source column missing or not string-typed")
	}
	targets, ok := tbl.StringColumn(cm.Target)
	if !ok {
		return nil, core.NewSchemaError(cm.Target, "required target column missing or not string-typed")
	}

	weights, err := numericOrDefault(tbl, cm.Weight, tbl.Rows())
	if err != nil {
		return nil, err
	}
	likelihoods, err := numericOrDefault(tbl, cm.Likelihood, tbl.Rows())
	if err != nil {
		return nil, err
	}

	edges := make(map[string]omics.Edge, tbl.Rows())
	for i := 0; i < tbl.Rows(); i++ {
		src := strings.TrimSpace(sources[i])
		tgt := strings.TrimSpace(targets[i])
		if src == "" {
			return nil, core.NewSchemaError(cm.Source, fmt.Sprintf("empty value at row %d", i))
		}
		if tgt == "" {
			return nil, core.NewSchemaError(cm.Target, fmt.Sprintf("empty value at row %d", i))
		}
		if math.IsNaN(weights[i]) || math.IsInf(weights[i], 0) {
			return nil, core.NewSchemaError(cm.Weight, fmt.Sprintf("non-finite value at row %d", i))
		}
		if math.IsNaN(likelihoods[i]) || math.IsInf(likelihoods[i], 0) {
			return nil, core.NewSchemaError(cm.Likelihood, fmt.Sprintf("non-finite value at row %d", i))
		}

		// Fold likelihood into the weight so downstream code sees a single
		// effective weight per edge.
		e := omics.Edge{Source: src, Target: tgt, Weight: weights[i] * likelihoods[i], Likelihood: 1}

		key := src + "\x1f" + tgt
		if prev, dup := edges[key]; dup {
			if prev.Weight != e.Weight {
				return nil, core.NewSchemaError(cm.Source,
					fmt.Sprintf("conflicting duplicate edge %s -> %s (%g vs %g)", src, tgt, prev.Weight, e.Weight))
			}
			continue // identical duplicate, keep the first
		}
		edges[key] = e
	}

	net := &omics.Network{Edges: make([]omics.Edge, 0, len(edges))}
	for _, e := range edges {
		net.Edges = append(net.Edges, e)
	}
	sort.Slice(net.Edges, func(i, j int) bool {
		if net.Edges[i].Source != net.Edges[j].Source {
			return net.Edges[i].Source < net.Edges[j].Source
		}
		return net.Edges[i].Target < net.Edges[j].Target
	})
	return net, nil
}

func numericOrDefault(tbl *omics.Table, name string, rows int) ([]float64, error) {
	if !tbl.HasColumn(name) {
		out := make([]float64, rows)
		for i := range out {
			out[i] = 1
		}
		return out, nil
	}
	col, ok := tbl.NumberColumn(name)
	if !ok {
		return nil, core.NewSchemaError(name, "column present but not numeric")
	}
	return col, nil
}
