package methods

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"regact/domain/score"
	"regact/internal/permute"
	"regact/internal/prep"
)

// WSum scores each regulator as the weighted sum (or mean) of its targets'
// measurements and calibrates it against a permutation null: feature labels
// on the weight matrix are reshuffled `times` times with the regulator
// structure fixed. Emits the raw statistic, the null-normalized z-score, and
// the corrected score (z scaled by -log10 of the empirical p-value), all
// sharing the same empirical p.
type WSum struct {
	mean bool
}

// NewWSum creates the weighted-sum method.
func NewWSum() *WSum {
	return &WSum{}
}

// NewWMean creates the weighted-mean variant, which divides each regulator's
// score by its matrix-covered target count.
func NewWMean() *WSum {
	return &WSum{mean: true}
}

func (w *WSum) Name() string {
	if w.mean {
		return "wmean"
	}
	return "wsum"
}

func (w *WSum) Description() string {
	if w.mean {
		return "Weighted mean of target measurements with a permutation null"
	}
	return "Weighted sum of target measurements with a permutation null"
}

// accumulate writes the flat (source-major) score grid for one feature
// assignment. sigma nil means the observed assignment; otherwise weights
// attach to feature sigma[f] instead of f.
func (w *WSum) accumulate(data *prep.Aligned, sigma []int, out []float64) {
	nCond := len(data.Conditions)
	for i := range data.Sources {
		base := i * nCond
		for c := 0; c < nCond; c++ {
			out[base+c] = 0
		}
		for _, f := range data.Nonzero[i] {
			weight := data.Weights.At(i, f)
			row := f
			if sigma != nil {
				row = sigma[f]
			}
			for c := 0; c < nCond; c++ {
				out[base+c] += weight * data.Mat.At(row, c)
			}
		}
		if w.mean {
			count := float64(data.TargetCounts[i])
			for c := 0; c < nCond; c++ {
				if count == 0 {
					out[base+c] = math.NaN()
				} else {
					out[base+c] /= count
				}
			}
		}
	}
}

func (w *WSum) Score(ctx context.Context, data *prep.Aligned, opts Options) (score.Table, error) {
	nSrc, nCond := len(data.Sources), len(data.Conditions)
	nFeat := len(data.Features)

	obs := make([]float64, nSrc*nCond)
	w.accumulate(data, nil, obs)

	task := func(index int, rng *rand.Rand, out []float64) {
		sigma := permute.Perm(rng, nFeat)
		w.accumulate(data, sigma, out)
	}

	null, err := permute.RunGridNull(ctx, opts.Times, opts.Workers, opts.Seed, obs, task)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", w.Name(), err)
	}

	norm := null.Normalized()
	pv := null.PValues()
	corr := make([]float64, len(obs))
	for i := range corr {
		// Add-one smoothing keeps pv > 0, so the log stays finite.
		corr[i] = norm[i] * -math.Log10(pv[i])
	}

	rawStat, normStat, corrStat := score.StatWSum, score.StatNormWSum, score.StatCorrWSum
	if w.mean {
		rawStat, normStat, corrStat = score.StatWMean, score.StatNormWMean, score.StatCorrWMean
	}

	out := make(score.Table, 0, 3*len(obs))
	for _, group := range []struct {
		stat string
		flat []float64
	}{
		{rawStat, obs},
		{normStat, norm},
		{corrStat, corr},
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

// unflatten reshapes a source-major flat grid into rows.
func unflatten(flat []float64, rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = flat[i*cols : (i+1)*cols]
	}
	return out
}
