package permute

import (
	"math"
)

// GridNull accumulates the permutation null for every cell of a flat score
// grid without retaining raw draws: running sum, sum of squares, and the
// count of null draws at least as extreme as the observation. Partials from
// different chunks merge exactly, so the fold order alone fixes the result.
type GridNull struct {
	obs    []float64
	count  []int
	sum    []float64
	sumsq  []float64
	folded int
}

// NewGridNull starts an accumulator for a grid of observed scores.
func NewGridNull(obs []float64) *GridNull {
	return &GridNull{
		obs:    obs,
		count:  make([]int, len(obs)),
		sum:    make([]float64, len(obs)),
		sumsq:  make([]float64, len(obs)),
	}
}

// Add folds one permutation's score grid into the null.
func (g *GridNull) Add(draw []float64) {
	for i, v := range draw {
		if math.Abs(v) >= math.Abs(g.obs[i]) {
			g.count[i]++
		}
		g.sum[i] += v
		g.sumsq[i] += v * v
	}
	g.folded++
}

// Merge folds another partial into this one. Callers must merge in ascending
// chunk order to keep float summation order fixed.
func (g *GridNull) Merge(other *GridNull) {
	for i := range g.sum {
		g.count[i] += other.count[i]
		g.sum[i] += other.sum[i]
		g.sumsq[i] += other.sumsq[i]
	}
	g.folded += other.folded
}

// Folded reports how many permutations have been accumulated.
func (g *GridNull) Folded() int { return g.folded }

// Normalized returns (obs - null mean) / null sd per cell, with the sample
// (n-1) standard deviation. A degenerate null (sd 0) normalizes to 0; a NaN
// observation stays NaN.
func (g *GridNull) Normalized() []float64 {
	out := make([]float64, len(g.obs))
	n := float64(g.folded)
	for i := range out {
		if math.IsNaN(g.obs[i]) || g.folded < 2 {
			out[i] = math.NaN()
			continue
		}
		mean := g.sum[i] / n
		variance := (g.sumsq[i] - n*mean*mean) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		sd := math.Sqrt(variance)
		if sd == 0 {
			out[i] = 0
			continue
		}
		out[i] = (g.obs[i] - mean) / sd
	}
	return out
}

// PValues returns the add-one smoothed two-sided empirical p-value per cell:
// (#{|null| >= |obs|} + 1) / (times + 1). NaN observations stay NaN.
func (g *GridNull) PValues() []float64 {
	out := make([]float64, len(g.obs))
	for i := range out {
		if math.IsNaN(g.obs[i]) || g.folded == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(g.count[i]+1) / float64(g.folded+1)
	}
	return out
}
