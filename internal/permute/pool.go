package permute

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"regact/domain/core"
)

// chunkSize is the number of consecutive permutation indices one worker task
// claims. Chunk boundaries, not workers, define the reduction order.
const chunkSize = 32

// GridTask scores one permutation into out, a flat grid buffer the task must
// fully overwrite. The stream is seeded for this index alone.
type GridTask func(index int, rng *rand.Rand, out []float64)

// RunGridNull executes times permutations of task and folds them into a
// GridNull. The index space is cut into fixed chunks; workers claim whole
// chunks and their partials are merged in ascending chunk order, so the
// result is bit-identical for any worker count.
func RunGridNull(ctx context.Context, times, workers int, seed int64, obs []float64, task GridTask) (*GridNull, error) {
	if times < 2 {
		return nil, core.NewValidationError("times", fmt.Sprintf("need >= 2 permutations, got %d", times))
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	nChunks := (times + chunkSize - 1) / chunkSize
	partials := make([]*GridNull, nChunks)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for c := 0; c < nChunks; c++ {
		c := c
		g.Go(func() error {
			start := c * chunkSize
			end := start + chunkSize
			if end > times {
				end = times
			}
			acc := NewGridNull(obs)
			buf := make([]float64, len(obs))
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				task(i, Stream(seed, i), buf)
				acc.Add(buf)
			}
			partials[c] = acc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("permutation pool: %w", err)
	}

	total := NewGridNull(obs)
	for _, p := range partials {
		total.Merge(p)
	}
	return total, nil
}
