package score

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"regact/domain/core"
)

// Statistic identifies one scoring family's output group.
const (
	StatULM       = "ulm"
	StatMLM       = "mlm"
	StatWSum      = "wsum"
	StatNormWSum  = "norm_wsum"
	StatCorrWSum  = "corr_wsum"
	StatWMean     = "wmean"
	StatNormWMean = "norm_wmean"
	StatCorrWMean = "corr_wmean"
	StatGSEA      = "gsea"
	StatNormGSEA  = "norm_gsea"
	StatConsensus = "consensus"
)

// Record is one (statistic, regulator, condition) activity score. PValue is
// NaN when the statistic carries no p-value.
type Record struct {
	Statistic string  `json:"statistic"`
	Source    string  `json:"source"`
	Condition string  `json:"condition"`
	Score     float64 `json:"score"`
	PValue    float64 `json:"p_value"`
}

// recordJSON mirrors Record with nullable numerics so NaN survives JSON.
type recordJSON struct {
	Statistic string   `json:"statistic"`
	Source    string   `json:"source"`
	Condition string   `json:"condition"`
	Score     *float64 `json:"score"`
	PValue    *float64 `json:"p_value"`
}

func nullableFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// MarshalJSON encodes NaN score/p-value as null.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Statistic: r.Statistic,
		Source:    r.Source,
		Condition: r.Condition,
		Score:     nullableFloat(r.Score),
		PValue:    nullableFloat(r.PValue),
	})
}

// UnmarshalJSON decodes null score/p-value as NaN.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	r.Statistic = raw.Statistic
	r.Source = raw.Source
	r.Condition = raw.Condition
	r.Score = math.NaN()
	if raw.Score != nil {
		r.Score = *raw.Score
	}
	r.PValue = math.NaN()
	if raw.PValue != nil {
		r.PValue = *raw.PValue
	}
	return nil
}

// Table is a long-form result table.
type Table []Record

// Sort orders the table by statistic, then source, then condition. Within a
// single statistic group this is the canonical source/condition order.
func (t Table) Sort() {
	sort.Slice(t, func(i, j int) bool {
		if t[i].Statistic != t[j].Statistic {
			return t[i].Statistic < t[j].Statistic
		}
		if t[i].Source != t[j].Source {
			return t[i].Source < t[j].Source
		}
		return t[i].Condition < t[j].Condition
	})
}

// Filter returns the records belonging to one statistic group.
func (t Table) Filter(statistic string) Table {
	var out Table
	for _, r := range t {
		if r.Statistic == statistic {
			out = append(out, r)
		}
	}
	return out
}

// Statistics returns the distinct statistic names present, ascending.
func (t Table) Statistics() []string {
	seen := make(map[string]struct{})
	for _, r := range t {
		seen[r.Statistic] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Lookup finds the record for (statistic, source, condition).
func (t Table) Lookup(statistic, source, condition string) (Record, bool) {
	for _, r := range t {
		if r.Statistic == statistic && r.Source == source && r.Condition == condition {
			return r, true
		}
	}
	return Record{}, false
}

// Fingerprint hashes the sorted table contents. Two runs with identical
// results share a fingerprint regardless of record order.
func (t Table) Fingerprint() core.ResultHash {
	sorted := make(Table, len(t))
	copy(sorted, t)
	sorted.Sort()

	var b strings.Builder
	for _, r := range sorted {
		b.WriteString(r.Statistic)
		b.WriteByte('\x1f')
		b.WriteString(r.Source)
		b.WriteByte('\x1f')
		b.WriteString(r.Condition)
		b.WriteByte('\x1f')
		b.WriteString(strconv.FormatFloat(r.Score, 'g', -1, 64))
		b.WriteByte('\x1f')
		b.WriteString(strconv.FormatFloat(r.PValue, 'g', -1, 64))
		b.WriteByte('\n')
	}
	return core.NewResultHash([]byte(b.String()))
}

// Pivot reshapes one statistic group into a dense sources x conditions score
// grid. Sources and conditions come back in ascending order; cells with no
// record are NaN.
func (t Table) Pivot(statistic string) (sources, conditions []string, scores [][]float64) {
	group := t.Filter(statistic)

	srcSet := make(map[string]struct{})
	condSet := make(map[string]struct{})
	for _, r := range group {
		srcSet[r.Source] = struct{}{}
		condSet[r.Condition] = struct{}{}
	}
	for s := range srcSet {
		sources = append(sources, s)
	}
	for c := range condSet {
		conditions = append(conditions, c)
	}
	sort.Strings(sources)
	sort.Strings(conditions)

	srcIdx := make(map[string]int, len(sources))
	for i, s := range sources {
		srcIdx[s] = i
	}
	condIdx := make(map[string]int, len(conditions))
	for i, c := range conditions {
		condIdx[c] = i
	}

	scores = make([][]float64, len(sources))
	for i := range scores {
		row := make([]float64, len(conditions))
		for j := range row {
			row[j] = math.NaN()
		}
		scores[i] = row
	}
	for _, r := range group {
		scores[srcIdx[r.Source]][condIdx[r.Condition]] = r.Score
	}
	return sources, conditions, scores
}
