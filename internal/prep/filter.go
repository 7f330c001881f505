package prep

import (
	"fmt"

	"regact/domain/core"
	"regact/domain/omics"
)

// DefaultMinSize is the conventional minimum number of matrix-covered targets
// a regulator needs to be scored.
const DefaultMinSize = 5

// SizeFilter drops regulators whose target sets barely intersect the measured
// features. MinSize 0 disables filtering entirely, keeping even regulators
// with no overlap at all.
type SizeFilter struct {
	MinSize int
}

// coverage counts each regulator's distinct targets present in the feature
// set. Regulators whose targets all miss the matrix get an explicit zero.
func coverage(net *omics.Network, features []string) map[string]int {
	featSet := make(map[string]struct{}, len(features))
	for _, f := range features {
		featSet[f] = struct{}{}
	}
	counts := make(map[string]int)
	seen := make(map[string]struct{})
	for _, e := range net.Edges {
		if _, ok := counts[e.Source]; !ok {
			counts[e.Source] = 0
		}
		if _, inMat := featSet[e.Target]; !inMat {
			continue
		}
		key := e.Source + "\x1f" + e.Target
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		counts[e.Source]++
	}
	return counts
}

// Apply returns the network restricted to regulators meeting the size
// threshold against the given feature universe.
func (f SizeFilter) Apply(net *omics.Network, features []string) (*omics.Network, error) {
	if f.MinSize < 0 {
		return nil, core.NewValidationError("min_size", fmt.Sprintf("must be >= 0, got %d", f.MinSize))
	}
	if len(net.Edges) == 0 {
		return nil, core.NewEmptyResultError("size filter", "network has no edges")
	}

	counts := coverage(net, features)
	if f.MinSize == 0 {
		return net, nil
	}

	keep := make(map[string]struct{}, len(counts))
	for src, n := range counts {
		if n >= f.MinSize {
			keep[src] = struct{}{}
		}
	}
	if len(keep) == 0 {
		return nil, core.NewEmptyResultError("size filter",
			fmt.Sprintf("no regulator has >= %d targets measured in the matrix", f.MinSize))
	}

	out := &omics.Network{}
	for _, e := range net.Edges {
		if _, ok := keep[e.Source]; ok {
			out.Edges = append(out.Edges, e)
		}
	}
	return out, nil
}
