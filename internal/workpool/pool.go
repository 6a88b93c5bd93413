// Package workpool runs independent tasks in parallel and joins their results.
//
// A Pool is shared by every caller of one pathfinder: precompute runs and
// concurrent multi-segment queries draw task slots from the same semaphore,
// so the total number of busy goroutines never exceeds the pool size.
package workpool

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of concurrently running tasks.
type Pool struct {
	size int
	sem  *semaphore.Weighted
}

// New creates a pool with the given number of slots.
// size <= 0 uses runtime.NumCPU().
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{
		size: size,
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

// Size returns the number of task slots.
func (p *Pool) Size() int {
	return p.size
}

// Map runs fn once per item on the pool and blocks until all tasks finish.
// Results are returned in item order regardless of completion order.
// The first task error cancels the remaining tasks and is returned.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for i, item := range items {
		g.Go(func() error {
			if err := p.sem.Acquire(gctx, 1); err != nil {
				return fmt.Errorf("acquiring pool slot: %w", err)
			}
			defer p.sem.Release(1)

			r, err := fn(gctx, item)
			if err != nil {
				return fmt.Errorf("task %d: %w", i, err)
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
