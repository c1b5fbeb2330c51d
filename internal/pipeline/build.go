package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BuildAll runs build for every target with at most jobs running at once.
// The first failure cancels the context handed to the remaining builds.
func BuildAll[T any](ctx context.Context, targets []T, jobs int, build func(ctx context.Context, i int, target T) error) error {
	if len(targets) == 0 {
		return nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(targets)))
	for i, target := range targets {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			if err := build(gctx, i, target); err != nil {
				return fmt.Errorf("target %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
