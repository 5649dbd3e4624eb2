package fairloop

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Sweep runs one reflection per config over the same initial votes and
// returns the results in config order.
//
// Runs execute concurrently, at most limit at a time (limit ≤ 0 means no
// bound). Each run draws its synthetic baseline from its own seeded source,
// so the outcome of a run does not depend on what else is in the sweep.
// The first failure cancels the remaining runs and is returned.
//
// opts apply to every run; observers and collaborators must be safe for
// concurrent use.
func Sweep(ctx context.Context, query string, initial []float64, configs []LoopConfig, limit int, opts ...Option) ([]*LoopResult, error) {
	results := make([]*LoopResult, len(configs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, cfg := range configs {
		g.Go(func() error {
			loop, err := NewLoop(cfg, opts...)
			if err != nil {
				return fmt.Errorf("config %d: %w", i, err)
			}

			res, err := loop.Run(ctx, query, initial)
			if err != nil {
				return fmt.Errorf("config %d: %w", i, err)
			}

			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
