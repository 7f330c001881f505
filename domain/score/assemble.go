package score

import (
	"fmt"
	"math"

	"regact/domain/core"
)

// Assemble flattens dense per-method output (sources x conditions score and
// p-value grids) into a sorted long-form table. A nil pvalues grid marks the
// whole group as p-value free (NaN).
func Assemble(statistic string, sources, conditions []string, scores, pvalues [][]float64) (Table, error) {
	if len(scores) != len(sources) {
		return nil, core.NewValidationError("scores",
			fmt.Sprintf("%d rows for %d sources", len(scores), len(sources)))
	}
	if pvalues != nil && len(pvalues) != len(sources) {
		return nil, core.NewValidationError("pvalues",
			fmt.Sprintf("%d rows for %d sources", len(pvalues), len(sources)))
	}

	out := make(Table, 0, len(sources)*len(conditions))
	for i, src := range sources {
		if len(scores[i]) != len(conditions) {
			return nil, core.NewValidationError("scores",
				fmt.Sprintf("source %q has %d cells for %d conditions", src, len(scores[i]), len(conditions)))
		}
		for j, cond := range conditions {
			p := math.NaN()
			if pvalues != nil {
				if len(pvalues[i]) != len(conditions) {
					return nil, core.NewValidationError("pvalues",
						fmt.Sprintf("source %q has %d cells for %d conditions", src, len(pvalues[i]), len(conditions)))
				}
				p = pvalues[i][j]
			}
			out = append(out, Record{
				Statistic: statistic,
				Source:    src,
				Condition: cond,
				Score:     scores[i][j],
				PValue:    p,
			})
		}
	}
	out.Sort()
	return out, nil
}
