package methods

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"regact/domain/core"
	"regact/domain/score"
)

// Consensus combines two or more single-statistic method tables into one
// score per (regulator, condition): each method's score column is
// standardized globally (mean 0, sample sd 1 across the whole column), the
// per-cell z-scores are averaged over the inner join of the inputs, and the
// average gets a two-sided standard-normal p-value. Pairs missing from any
// input are dropped.
func Consensus(tables []score.Table) (score.Table, error) {
	if len(tables) < 2 {
		return nil, core.NewValidationError("consensus",
			fmt.Sprintf("needs at least two method tables, got %d", len(tables)))
	}

	type key struct {
		source    string
		condition string
	}

	zs := make([]map[key]float64, len(tables))
	for ti, tbl := range tables {
		names := tbl.Statistics()
		if len(names) != 1 {
			return nil, core.NewValidationError("consensus",
				fmt.Sprintf("input table %d carries %d statistic groups, want exactly one", ti, len(names)))
		}

		finite := make([]float64, 0, len(tbl))
		for _, r := range tbl {
			if !math.IsNaN(r.Score) {
				finite = append(finite, r.Score)
			}
		}
		mean := stat.Mean(finite, nil)
		sd := stat.StdDev(finite, nil)

		m := make(map[key]float64, len(tbl))
		for _, r := range tbl {
			k := key{r.Source, r.Condition}
			switch {
			case math.IsNaN(r.Score) || math.IsNaN(sd):
				m[k] = math.NaN()
			case sd == 0:
				// A constant column carries no ranking information.
				m[k] = 0
			default:
				m[k] = (r.Score - mean) / sd
			}
		}
		zs[ti] = m
	}

	out := make(score.Table, 0, len(zs[0]))
	for k, z0 := range zs[0] {
		sum := z0
		joined := true
		for ti := 1; ti < len(zs); ti++ {
			z, ok := zs[ti][k]
			if !ok {
				joined = false
				break
			}
			sum += z
		}
		if !joined {
			continue
		}
		avg := sum / float64(len(zs))
		out = append(out, score.Record{
			Statistic: score.StatConsensus,
			Source:    k.source,
			Condition: k.condition,
			Score:     avg,
			PValue:    normalPValue(avg),
		})
	}
	if len(out) == 0 {
		return nil, core.NewEmptyResultError("consensus",
			"no (source, condition) pair present in every method table")
	}
	out.Sort()
	return out, nil
}
