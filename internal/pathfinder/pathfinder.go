// Package pathfinder is the entry point for route queries over a navmesh.
//
// A Pathfinder owns the immutable navmesh graph, the LRU path cache and the
// worker pool. Queries consult the cache by snapped (start, goal) node pair,
// fall back to bidirectional A* on a miss and store found routes. Routes that
// do not exist are never cached, so the cache only ever holds real paths.
package pathfinder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/navpath/internal/config"
	"github.com/udisondev/navpath/internal/navmesh"
	"github.com/udisondev/navpath/internal/pathcache"
	"github.com/udisondev/navpath/internal/pathfind"
	"github.com/udisondev/navpath/internal/precompute"
	"github.com/udisondev/navpath/internal/workpool"
)

// Pathfinder answers route queries. Thread-safe.
type Pathfinder struct {
	settings   config.Settings
	graph      *navmesh.Graph
	searcher   *pathfind.Searcher
	cache      *pathcache.Cache
	pool       *workpool.Pool
	precompute precompute.Report
}

// Stats is a snapshot of pathfinder counters.
type Stats struct {
	Precompute precompute.Report
	Cache      pathcache.Stats
}

// New builds the graph from mesh and, when enabled, warms the cache.
// Nothing is returned on error: a Pathfinder is either complete or absent.
func New(ctx context.Context, settings config.Settings, mesh navmesh.Mesh) (*Pathfinder, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("creating pathfinder: %w", err)
	}

	graph, err := navmesh.Build(mesh)
	if err != nil {
		return nil, fmt.Errorf("building navmesh graph: %w", err)
	}

	p := &Pathfinder{
		settings: settings,
		graph:    graph,
		searcher: pathfind.NewSearcher(graph),
		cache:    pathcache.New(settings.CacheCapacity),
		pool:     workpool.New(settings.Workers),
	}

	if settings.UsePrecomputedCache {
		report, err := precompute.Run(ctx, p.pool, p.searcher, p.cache, precompute.Params{
			Radius: settings.PrecomputeRadius,
			Pairs:  settings.TotalPrecomputePairs,
			Seed:   settings.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("precomputing paths: %w", err)
		}
		p.precompute = report
	}

	slog.Info("pathfinder ready",
		"nodes", graph.Len(),
		"cache_capacity", settings.CacheCapacity,
		"cached", p.cache.Len(),
		"workers", p.pool.Size())
	return p, nil
}

// FindPath returns a route from start to goal, or nil when none exists.
// The first and last points are always start and goal themselves.
func (p *Pathfinder) FindPath(start, goal navmesh.Vec3) (*pathfind.Path, error) {
	from, err := p.graph.Nearest(start)
	if err != nil {
		return nil, fmt.Errorf("snapping start %v: %w", start, err)
	}
	to, err := p.graph.Nearest(goal)
	if err != nil {
		return nil, fmt.Errorf("snapping goal %v: %w", goal, err)
	}

	route, ok := p.route(from, to)
	if !ok {
		return nil, nil
	}
	return pathfind.NewPath(p.graph, route, start, goal), nil
}

// FindPathMultithreaded splits the query into segments solved in parallel.
// Each segment is looked up in and stored to the cache under its own node
// pair. Intended for long distances only: the result may be longer than a
// direct search, and it is nil when any segment has no route.
func (p *Pathfinder) FindPathMultithreaded(start, goal navmesh.Vec3, segments int) (*pathfind.Path, error) {
	return pathfind.FindSegmented(context.Background(), p.pool, p.graph,
		pathfind.SolverFunc(p.route), start, goal, segments)
}

// route resolves a node pair through the cache.
func (p *Pathfinder) route(from, to navmesh.NodeID) (pathfind.Route, bool) {
	key := pathcache.Key{Start: from, Goal: to}
	if r, ok := p.cache.Get(key); ok {
		return r, true
	}

	r, ok := p.searcher.Route(from, to)
	if !ok {
		return pathfind.Route{}, false
	}
	p.cache.Put(key, r)
	return r, true
}

// Graph returns the navmesh graph (read-only).
func (p *Pathfinder) Graph() *navmesh.Graph {
	return p.graph
}

// Settings returns the settings the pathfinder was created with.
func (p *Pathfinder) Settings() config.Settings {
	return p.settings
}

// Stats returns precompute results and current cache counters.
func (p *Pathfinder) Stats() Stats {
	return Stats{
		Precompute: p.precompute,
		Cache:      p.cache.Stats(),
	}
}
