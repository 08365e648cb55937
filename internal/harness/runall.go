package harness

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll executes scenarios concurrently, at most limit at a time
// (unbounded when limit <= 0). Results are returned in input order.
// The first infrastructure error cancels the remaining runs.
func RunAll(ctx context.Context, scenarios []*Scenario, limit int) ([]*Result, error) {
	results := make([]*Result, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range scenarios {
		g.Go(func() error {
			r, err := RunContext(ctx, s)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
