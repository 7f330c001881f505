package methods

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"regact/domain/score"
	"regact/internal/permute"
	"regact/internal/prep"
)

// GSEA ranks each condition's features by measurement and walks a weighted
// running sum per regulator: weighted steps up at the regulator's targets,
// uniform steps down elsewhere. The enrichment score is the running sum at
// its maximum absolute deviation, calibrated against the same label
// permutation null the weighted-sum family uses.
type GSEA struct{}

// NewGSEA creates the rank-based enrichment method.
func NewGSEA() *GSEA {
	return &GSEA{}
}

func (g *GSEA) Name() string {
	return "gsea"
}

func (g *GSEA) Description() string {
	return "Rank-based running-sum enrichment with a permutation null"
}

func (g *GSEA) Score(ctx context.Context, data *prep.Aligned, opts Options) (score.Table, error) {
	nSrc, nCond := len(data.Sources), len(data.Conditions)
	nFeat := len(data.Features)

	// Rankings depend only on observed values: descending measurement,
	// ties broken by feature id so the walk order is fully deterministic.
	orders := make([][]int, nCond)
	col := make([]float64, nFeat)
	for c := 0; c < nCond; c++ {
		mat.Col(col, c, data.Mat)
		vals := append([]float64(nil), col...)
		ord := make([]int, nFeat)
		for f := range ord {
			ord[f] = f
		}
		sort.Slice(ord, func(x, y int) bool {
			fx, fy := ord[x], ord[y]
			if vals[fx] != vals[fy] {
				return vals[fx] > vals[fy]
			}
			return data.Features[fx] < data.Features[fy]
		})
		orders[c] = ord
	}

	// Membership size and total absolute weight are permutation-invariant.
	totalAbs := make([]float64, nSrc)
	for i := 0; i < nSrc; i++ {
		for _, f := range data.Nonzero[i] {
			totalAbs[i] += math.Abs(data.Weights.At(i, f))
		}
	}

	walk := func(sigma []int, out []float64) {
		for c := 0; c < nCond; c++ {
			ord := orders[c]
			for i := 0; i < nSrc; i++ {
				m := len(data.Nonzero[i])
				if m == 0 || totalAbs[i] == 0 {
					out[i*nCond+c] = math.NaN()
					continue
				}
				missStep := 0.0
				if nFeat > m {
					missStep = 1 / float64(nFeat-m)
				}
				run, best := 0.0, 0.0
				for _, f := range ord {
					wf := 0.0
					if sigma == nil {
						wf = data.Weights.At(i, f)
					} else {
						wf = data.Weights.At(i, sigma[f])
					}
					if wf != 0 {
						run += wf / totalAbs[i]
					} else {
						run -= missStep
					}
					if math.Abs(run) > math.Abs(best) {
						best = run
					}
				}
				out[i*nCond+c] = best
			}
		}
	}

	obs := make([]float64, nSrc*nCond)
	walk(nil, obs)

	task := func(index int, rng *rand.Rand, out []float64) {
		sigma := permute.Perm(rng, nFeat)
		walk(sigma, out)
	}

	null, err := permute.RunGridNull(ctx, opts.Times, opts.Workers, opts.Seed, obs, task)
	if err != nil {
		return nil, fmt.Errorf("gsea: %w", err)
	}

	norm := null.Normalized()
	pv := null.PValues()

	out := make(score.Table, 0, 2*len(obs))
	for _, group := range []struct {
		stat string
		flat []float64
	}{
		{score.StatGSEA, obs},
		{score.StatNormGSEA, norm},
	} {
		tbl, err := score.Assemble(group.stat, data.Sources, data.Conditions,
			unflatten(group.flat, nSrc, nCond), unflatten(pv, nSrc, nCond))
		if err != nil {
			return nil, err
		}
		out = append(out, tbl...)
	}
	out.Sort()
	return out, nil
}
