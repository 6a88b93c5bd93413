package pathfind

import (
	"context"
	"errors"
	"fmt"

	"github.com/udisondev/navpath/internal/navmesh"
	"github.com/udisondev/navpath/internal/workpool"
)

// MaxSegments is the largest segment count a segmented search accepts.
const MaxSegments = 1024

// ErrInvalidSegmentCount is returned when a segmented search is asked for
// fewer than two or more than MaxSegments segments.
var ErrInvalidSegmentCount = errors.New("segment count out of range")

// Solver resolves a node route. Searcher solves directly; the pathfinder
// wraps it with the path cache.
type Solver interface {
	Route(from, to navmesh.NodeID) (Route, bool)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(from, to navmesh.NodeID) (Route, bool)

// Route calls f(from, to).
func (f SolverFunc) Route(from, to navmesh.NodeID) (Route, bool) {
	return f(from, to)
}

// Waypoints returns segments+1 points evenly spaced on the straight line from
// start to goal, both included. Returns nil when segments is not in
// [1, MaxSegments].
func Waypoints(start, goal navmesh.Vec3, segments int) []navmesh.Vec3 {
	if segments < 1 || segments > MaxSegments {
		return nil
	}
	points := make([]navmesh.Vec3, segments+1)
	points[0] = start
	for i := 1; i < segments; i++ {
		points[i] = start.Lerp(goal, float64(i)/float64(segments))
	}
	points[segments] = goal
	return points
}

type leg struct {
	from, to navmesh.NodeID
}

type legResult struct {
	route Route
	ok    bool
}

// FindSegmented splits start→goal at interpolated waypoints, solves every
// segment as an independent task on the pool and concatenates the results in
// waypoint order. The result is not guaranteed to be as short as a direct
// search, and it is nil when any segment has no route (a waypoint may snap
// into an unreachable island even when a direct route exists).
func FindSegmented(
	ctx context.Context,
	pool *workpool.Pool,
	g *navmesh.Graph,
	solver Solver,
	start, goal navmesh.Vec3,
	segments int,
) (*Path, error) {
	if segments < 2 || segments > MaxSegments {
		return nil, fmt.Errorf("%w: got %d, want 2..%d", ErrInvalidSegmentCount, segments, MaxSegments)
	}

	points := Waypoints(start, goal, segments)
	ids := make([]navmesh.NodeID, len(points))
	for i, p := range points {
		id, err := g.Nearest(p)
		if err != nil {
			return nil, fmt.Errorf("snapping waypoint %d: %w", i, err)
		}
		ids[i] = id
	}

	legs := make([]leg, segments)
	for i := range legs {
		legs[i] = leg{from: ids[i], to: ids[i+1]}
	}

	results, err := workpool.Map(ctx, pool, legs, func(_ context.Context, l leg) (legResult, error) {
		r, ok := solver.Route(l.from, l.to)
		return legResult{route: r, ok: ok}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("solving segments: %w", err)
	}

	var joined Route
	for _, res := range results {
		if !res.ok {
			return nil, nil
		}
		joined = joined.Join(res.route)
	}
	return NewPath(g, joined, start, goal), nil
}
