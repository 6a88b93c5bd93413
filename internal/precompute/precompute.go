// Package precompute warms the path cache with random nearby node pairs.
package precompute

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"

	"github.com/udisondev/navpath/internal/navmesh"
	"github.com/udisondev/navpath/internal/pathcache"
	"github.com/udisondev/navpath/internal/pathfind"
	"github.com/udisondev/navpath/internal/workpool"
)

// Params controls one precompute run.
type Params struct {
	Radius float64 // max Euclidean distance between sampled endpoints
	Pairs  int     // sampling attempts; the run never makes more
	Seed   uint64  // 0 picks a random seed
}

// Report summarizes a precompute run. Every attempt ends up in exactly one
// of Duplicates, NoCandidate, Solved or Failed.
type Report struct {
	Attempts    int
	Scheduled   int
	Solved      int
	Failed      int // no route between the sampled nodes
	Duplicates  int // pair already cached or already sampled
	NoCandidate int // no other node within radius
	Seed        uint64
	Duration    time.Duration
}

// Run samples up to p.Pairs node pairs and solves them on the pool, storing
// every found route in the cache. Pairs without a route are counted and not
// retried.
func Run(ctx context.Context, pool *workpool.Pool, searcher *pathfind.Searcher, cache *pathcache.Cache, p Params) (Report, error) {
	began := time.Now()
	report := Report{Seed: p.Seed}
	if report.Seed == 0 {
		report.Seed = rand.Uint64()
	}

	g := searcher.Graph()
	if p.Pairs <= 0 || g.Len() == 0 {
		report.Duration = time.Since(began)
		return report, nil
	}

	slog.Info("precompute started",
		"pairs", p.Pairs,
		"radius", p.Radius,
		"workers", pool.Size(),
		"seed", report.Seed)

	keys := sample(g, cache, p, report.Seed, &report)
	report.Scheduled = len(keys)

	var done atomic.Int64
	step := max(int64(len(keys))/10, 1)

	solved, err := workpool.Map(ctx, pool, keys, func(_ context.Context, key pathcache.Key) (bool, error) {
		route, ok := searcher.Route(key.Start, key.Goal)
		if ok {
			cache.Put(key, route)
		} else {
			slog.Debug("precompute pair has no route", "start", key.Start, "goal", key.Goal)
		}

		if n := done.Add(1); n%step == 0 {
			slog.Info("precompute progress",
				"done", n,
				"total", len(keys),
				"percent", fmt.Sprintf("%.0f", float64(n)*100/float64(len(keys))))
		}
		return ok, nil
	})
	if err != nil {
		return report, fmt.Errorf("solving precompute pairs: %w", err)
	}

	for _, ok := range solved {
		if ok {
			report.Solved++
		} else {
			report.Failed++
		}
	}
	report.Duration = time.Since(began)

	slog.Info("precompute finished",
		"attempts", report.Attempts,
		"solved", report.Solved,
		"failed", report.Failed,
		"duplicates", report.Duplicates,
		"no_candidate", report.NoCandidate,
		"cached", cache.Len(),
		"duration", report.Duration)
	return report, nil
}

// sample draws the pairs to solve. Sampling is sequential so that a fixed
// seed always yields the same pairs.
func sample(g *navmesh.Graph, cache *pathcache.Cache, p Params, seed uint64, report *Report) []pathcache.Key {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	seen := make(map[pathcache.Key]struct{}, p.Pairs)
	keys := make([]pathcache.Key, 0, p.Pairs)

	for range p.Pairs {
		report.Attempts++

		start := navmesh.NodeID(rng.IntN(g.Len()))
		candidates := g.Within(g.Pos(start), p.Radius)
		self, found := slices.BinarySearch(candidates, start)
		if !found || len(candidates) < 2 {
			report.NoCandidate++
			continue
		}

		i := rng.IntN(len(candidates) - 1)
		if i >= self {
			i++ // skip the start node itself
		}
		key := pathcache.Key{Start: start, Goal: candidates[i]}

		if _, dup := seen[key]; dup || cache.Contains(key) {
			report.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
