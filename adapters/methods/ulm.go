package methods

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"regact/domain/score"
	"regact/internal/prep"
)

// ulmEpsilon keeps the t-statistic finite at |rho| = 1; a perfectly
// correlated regulator comes out as a very large score instead of +/-Inf.
const ulmEpsilon = 1e-20

// ULM scores each regulator independently: Pearson correlation between the
// regulator's nonzero weights and the condition's values at those features,
// mapped to a t-statistic on the regulator's covered-target degrees of
// freedom.
type ULM struct{}

// NewULM creates the univariate linear model method.
func NewULM() *ULM {
	return &ULM{}
}

func (u *ULM) Name() string {
	return "ulm"
}

func (u *ULM) Description() string {
	return "Univariate linear model: per-regulator weight/value correlation as a t-statistic"
}

// Score fills one cell per (regulator, condition). Degenerate cells (df <= 0,
// fewer than two weighted targets, zero variance) are NaN, never fatal.
func (u *ULM) Score(ctx context.Context, data *prep.Aligned, opts Options) (score.Table, error) {
	nSrc, nCond := len(data.Sources), len(data.Conditions)
	scores := nanGrid(nSrc, nCond)
	pvals := nanGrid(nSrc, nCond)

	values := data.Mat
	if opts.Center {
		values = data.CenteredMat(opts.CenterIgnoreMissing)
	}

	// Weight slices are condition-independent; hoist them out of the loop.
	weights := make([][]float64, nSrc)
	for i := 0; i < nSrc; i++ {
		idx := data.Nonzero[i]
		weights[i] = make([]float64, len(idx))
		for k, f := range idx {
			weights[i][k] = data.Weights.At(i, f)
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for j := 0; j < nCond; j++ {
		j := j
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			col := make([]float64, len(data.Features))
			mat.Col(col, j, values)
			ys := make([]float64, 0, len(data.Features))

			for i := 0; i < nSrc; i++ {
				df := float64(data.TargetCounts[i] - 2)
				idx := data.Nonzero[i]
				if df <= 0 || len(idx) < 2 {
					continue // cell stays NaN
				}
				ys = ys[:len(idx)]
				for k, f := range idx {
					ys[k] = col[f]
				}
				rho := stat.Correlation(weights[i], ys, nil)
				if math.IsNaN(rho) {
					continue // zero variance on either side
				}
				t := rho * math.Sqrt(df/((1-rho+ulmEpsilon)*(1+rho+ulmEpsilon)))
				scores[i][j] = t
				pvals[i][j] = studentTPValue(t, df)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ulm: %w", err)
	}

	return score.Assemble(score.StatULM, data.Sources, data.Conditions, scores, pvals)
}
