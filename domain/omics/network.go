package omics

import (
	"sort"
	"strconv"
	"strings"

	"regact/domain/core"
)

// Edge is one canonical regulator->feature relation. After formatting,
// Likelihood is always 1 (it has been folded into Weight).
type Edge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Weight     float64 `json:"weight"`
	Likelihood float64 `json:"likelihood"`
}

// Network is a canonical prior-knowledge network: at most one edge per
// (source, target) pair, weights signed, likelihoods folded in.
type Network struct {
	Edges []Edge `json:"edges"`
}

// Sources returns the distinct regulator names in ascending order.
func (n *Network) Sources() []string {
	seen := make(map[string]struct{})
	for _, e := range n.Edges {
		seen[e.Source] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// TargetsOf returns the distinct targets of one regulator, ascending.
func (n *Network) TargetsOf(source string) []string {
	seen := make(map[string]struct{})
	for _, e := range n.Edges {
		if e.Source == source {
			seen[e.Target] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Fingerprint returns a deterministic content hash over the edge set,
// independent of edge ordering.
func (n *Network) Fingerprint() core.NetworkHash {
	lines := make([]string, len(n.Edges))
	for i, e := range n.Edges {
		lines[i] = e.Source + "\x1f" + e.Target + "\x1f" +
			strconv.FormatFloat(e.Weight, 'g', -1, 64) + "\x1f" +
			strconv.FormatFloat(e.Likelihood, 'g', -1, 64)
	}
	sort.Strings(lines)
	return core.NewNetworkHash([]byte(strings.Join(lines, "\n")))
}

// TableFromEdges builds the conventional four-column annotation table from a
// list of edges. Useful for generators and tests that start from canonical
// data and still want to exercise the formatting path.
func TableFromEdges(edges []Edge) *Table {
	src := make([]string, len(edges))
	tgt := make([]string, len(edges))
	wgt := make([]float64, len(edges))
	lik := make([]float64, len(edges))
	for i, e := range edges {
		src[i] = e.Source
		tgt[i] = e.Target
		wgt[i] = e.Weight
		lik[i] = e.Likelihood
	}
	t, err := NewTable(
		Column{Name: "source", Strings: src},
		Column{Name: "target", Strings: tgt},
		Column{Name: "weight", Numbers: wgt},
		Column{Name: "likelihood", Numbers: lik},
	)
	if err != nil {
		// Construction above cannot violate the table contract.
		panic(err)
	}
	return t
}
