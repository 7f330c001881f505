// Package methods implements the enrichment scoring family: each method
// consumes the shared prepared view (aligned matrix + weight matrix) and
// emits a long-form score table for its statistic groups.
package methods

import (
	"context"

	"regact/domain/omics"
	"regact/domain/score"
	"regact/internal/prep"
)

// Options carries the shared scoring knobs. Zero values are meaningful
// (MinSize 0 disables filtering), so callers start from DefaultOptions and
// override from there.
type Options struct {
	// Columns maps logical network roles onto the input table's columns.
	Columns omics.ColumnMap `json:"columns"`
	// MinSize is the minimum matrix-covered target count per regulator.
	MinSize int `json:"min_size"`
	// Center subtracts each feature's mean across conditions before
	// correlation/regression scoring. Permutation methods ignore it.
	Center bool `json:"center"`
	// CenterIgnoreMissing skips NaN cells when computing row means.
	CenterIgnoreMissing bool `json:"center_ignore_missing"`
	// Times is the permutation count for null-model methods.
	Times int `json:"times"`
	// Seed is the base seed all permutation streams derive from.
	Seed int64 `json:"seed"`
	// Workers caps scoring parallelism; 0 means one per CPU.
	Workers int `json:"workers"`
}

// DefaultOptions returns the conventional defaults.
func DefaultOptions() Options {
	return Options{
		Columns: omics.DefaultColumnMap(),
		MinSize: prep.DefaultMinSize,
		Times:   100,
		Seed:    42,
	}
}

// Method is one enrichment scorer over the prepared view.
type Method interface {
	Name() string
	Description() string
	Score(ctx context.Context, data *prep.Aligned, opts Options) (score.Table, error)
}

// All returns one instance of every scoring method, in canonical order.
func All() []Method {
	return []Method{
		NewULM(),
		NewMLM(),
		NewWSum(),
		NewWMean(),
		NewGSEA(),
	}
}

// Lookup finds a method by name.
func Lookup(name string) (Method, bool) {
	for _, m := range All() {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// DefaultSet is the method selection used when the caller names none.
var DefaultSet = []string{"ulm", "mlm", "wsum"}

// PreferredStatistic is the statistic group a method contributes to the
// consensus score.
func PreferredStatistic(method string) string {
	switch method {
	case "wsum":
		return score.StatNormWSum
	case "wmean":
		return score.StatNormWMean
	case "gsea":
		return score.StatNormGSEA
	default:
		return method
	}
}

// run is the standalone path: full shared pipeline, then one method.
func run(ctx context.Context, m Method, mx *omics.Matrix, tbl *omics.Table, opts Options) (score.Table, error) {
	data, err := prep.Prepare(mx, tbl, opts.Columns, opts.MinSize)
	if err != nil {
		return nil, err
	}
	return m.Score(ctx, data, opts)
}

// RunULM scores with the univariate linear model.
func RunULM(ctx context.Context, mx *omics.Matrix, tbl *omics.Table, opts Options) (score.Table, error) {
	return run(ctx, NewULM(), mx, tbl, opts)
}

// RunMLM scores with the multivariate linear model.
func RunMLM(ctx context.Context, mx *omics.Matrix, tbl *omics.Table, opts Options) (score.Table, error) {
	return run(ctx, NewMLM(), mx, tbl, opts)
}

// RunWSum scores with the weighted sum and its permutation null.
func RunWSum(ctx context.Context, mx *omics.Matrix, tbl *omics.Table, opts Options) (score.Table, error) {
	return run(ctx, NewWSum(), mx, tbl, opts)
}

// RunWMean scores with the weighted mean and its permutation null.
func RunWMean(ctx context.Context, mx *omics.Matrix, tbl *omics.Table, opts Options) (score.Table, error) {
	return run(ctx, NewWMean(), mx, tbl, opts)
}

// RunGSEA scores with the rank-based running-sum statistic.
func RunGSEA(ctx context.Context, mx *omics.Matrix, tbl *omics.Table, opts Options) (score.Table, error) {
	return run(ctx, NewGSEA(), mx, tbl, opts)
}
