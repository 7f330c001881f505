package methods

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"regact/domain/core"
	"regact/domain/score"
	"regact/internal/prep"
)

const machineEpsilon = 2.220446049250313e-16

// MLM fits one multivariate least-squares model per condition: the condition
// profile regressed on all regulators' weight columns plus an intercept. A
// regulator's score is the t-statistic of its coefficient, so each score is
// conditioned on every other regulator in the network.
type MLM struct{}

// NewMLM creates the multivariate linear model method.
func NewMLM() *MLM {
	return &MLM{}
}

func (m *MLM) Name() string {
	return "mlm"
}

func (m *MLM) Description() string {
	return "Multivariate linear model: joint regression coefficients as t-statistics"
}

// Score factors the design once and reuses it across conditions. A design
// that is not full column rank, or one with no residual degrees of freedom,
// fails the whole call deterministically; no regulator is silently dropped.
func (m *MLM) Score(ctx context.Context, data *prep.Aligned, opts Options) (score.Table, error) {
	n := len(data.Features)
	k := len(data.Sources)
	nCond := len(data.Conditions)
	p := k + 1 // regulators + intercept
	df := n - p
	if df <= 0 {
		return nil, fmt.Errorf("%w: %d features leave no residual df for %d regressors",
			core.ErrRankDeficient, n, k)
	}

	values := data.Mat
	if opts.Center {
		values = data.CenteredMat(opts.CenterIgnoreMissing)
	}

	design := mat.NewDense(n, p, nil)
	for f := 0; f < n; f++ {
		design.Set(f, 0, 1)
		for q := 0; q < k; q++ {
			design.Set(f, q+1, data.Weights.At(q, f))
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return nil, fmt.Errorf("mlm: svd factorization did not converge")
	}
	sv := svd.Values(nil)
	tol := float64(n) * sv[0] * machineEpsilon
	rank := 0
	for _, v := range sv {
		if v > tol {
			rank++
		}
	}
	if rank < p {
		return nil, core.NewRankDeficiencyError(rank, p)
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// diag((X'X)^-1) from the SVD: sum_j V[q,j]^2 / s_j^2.
	xtxInvDiag := make([]float64, p)
	for q := 0; q < p; q++ {
		sum := 0.0
		for j := 0; j < p; j++ {
			r := v.At(q, j) / sv[j]
			sum += r * r
		}
		xtxInvDiag[q] = sum
	}

	scores := nanGrid(k, nCond)
	pvals := nanGrid(k, nCond)

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

			y := make([]float64, n)
			mat.Col(y, j, values)

			// beta = V diag(1/s) U' y
			scaled := make([]float64, p)
			for c := 0; c < p; c++ {
				sum := 0.0
				for f := 0; f < n; f++ {
					sum += u.At(f, c) * y[f]
				}
				scaled[c] = sum / sv[c]
			}
			beta := make([]float64, p)
			for q := 0; q < p; q++ {
				sum := 0.0
				for c := 0; c < p; c++ {
					sum += v.At(q, c) * scaled[c]
				}
				beta[q] = sum
			}

			rss := 0.0
			for f := 0; f < n; f++ {
				pred := beta[0]
				for q := 1; q < p; q++ {
					pred += design.At(f, q) * beta[q]
				}
				r := y[f] - pred
				rss += r * r
			}
			sigma2 := rss / float64(df)

			for q := 1; q < p; q++ {
				se := math.Sqrt(sigma2 * xtxInvDiag[q])
				if se == 0 || math.IsNaN(se) {
					continue // degenerate cell stays NaN
				}
				t := beta[q] / se
				scores[q-1][j] = t
				pvals[q-1][j] = studentTPValue(t, float64(df))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("mlm: %w", err)
	}

	return score.Assemble(score.StatMLM, data.Sources, data.Conditions, scores, pvals)
}
