// Package pathfind implements bidirectional A* over a navmesh graph.
package pathfind

import (
	"container/heap"
	"fmt"
	"math"
	"slices"

	"github.com/udisondev/navpath/internal/navmesh"
)

// Searcher runs uncached searches over one graph.
// Thread-safe: each search allocates its own state.
type Searcher struct {
	graph *navmesh.Graph
}

// NewSearcher creates a Searcher for the given graph.
func NewSearcher(g *navmesh.Graph) *Searcher {
	return &Searcher{graph: g}
}

// Graph returns the searched graph.
func (s *Searcher) Graph() *navmesh.Graph {
	return s.graph
}

// FindPath snaps both coordinates to their nearest nodes and searches between
// them. Returns nil without error when the nodes are not connected.
func (s *Searcher) FindPath(start, goal navmesh.Vec3) (*Path, error) {
	from, err := s.graph.Nearest(start)
	if err != nil {
		return nil, fmt.Errorf("snapping start %v: %w", start, err)
	}
	to, err := s.graph.Nearest(goal)
	if err != nil {
		return nil, fmt.Errorf("snapping goal %v: %w", goal, err)
	}

	route, ok := s.Route(from, to)
	if !ok {
		return nil, nil
	}
	return NewPath(s.graph, route, start, goal), nil
}

// frontier is the state of one search direction.
type frontier struct {
	graph     *navmesh.Graph
	targetPos navmesh.Vec3
	open      openHeap
	g         map[navmesh.NodeID]float64
	parent    map[navmesh.NodeID]navmesh.NodeID
	closed    map[navmesh.NodeID]struct{}
}

func newFrontier(g *navmesh.Graph, origin, target navmesh.NodeID) *frontier {
	f := &frontier{
		graph:     g,
		targetPos: g.Pos(target),
		open:      make(openHeap, 0, 64),
		g:         make(map[navmesh.NodeID]float64, 256),
		parent:    make(map[navmesh.NodeID]navmesh.NodeID, 256),
		closed:    make(map[navmesh.NodeID]struct{}, 256),
	}
	f.g[origin] = 0
	f.push(origin, 0)
	return f
}

// heuristic is the straight-line distance to the opposite origin.
func (f *frontier) heuristic(n navmesh.NodeID) float64 {
	return f.graph.Pos(n).Dist(f.targetPos)
}

func (f *frontier) push(n navmesh.NodeID, g float64) {
	heap.Push(&f.open, openEntry{node: n, g: g, f: g + f.heuristic(n)})
}

// prune discards stale entries from the top of the open set.
func (f *frontier) prune() {
	for f.open.Len() > 0 {
		top := f.open[0]
		_, done := f.closed[top.node]
		if !done && top.g <= f.g[top.node] {
			return
		}
		heap.Pop(&f.open)
	}
}

// minF returns the smallest valid f in the open set (+Inf when empty).
func (f *frontier) minF() float64 {
	f.prune()
	if f.open.Len() == 0 {
		return math.Inf(1)
	}
	return f.open[0].f
}

func (f *frontier) isClosed(n navmesh.NodeID) bool {
	_, ok := f.closed[n]
	return ok
}

// Route finds the cheapest node route between two nodes with bidirectional
// A*. Each step expands the frontier with the smaller open set. The best
// meeting cost is updated whenever a node labelled by both frontiers is
// reached, and the search stops once either frontier's minimum f can no
// longer beat it. Returns false when the nodes are not connected.
func (s *Searcher) Route(from, to navmesh.NodeID) (Route, bool) {
	g := s.graph
	if from == to {
		return Route{Nodes: []navmesh.NodeID{from}}, true
	}
	if !g.Connected(from, to) {
		return Route{}, false
	}

	fwd := newFrontier(g, from, to)
	bwd := newFrontier(g, to, from)

	best := math.Inf(1)
	meet := navmesh.NodeID(-1)
	offer := func(n navmesh.NodeID, cost float64) {
		if cost < best || (cost == best && n < meet) {
			best, meet = cost, n
		}
	}

	for {
		fMin, bMin := fwd.minF(), bwd.minF()
		if math.IsInf(fMin, 1) || math.IsInf(bMin, 1) {
			break // a frontier is exhausted
		}
		if fMin >= best || bMin >= best {
			break
		}

		cur, other := fwd, bwd
		if bwd.open.Len() < fwd.open.Len() {
			cur, other = bwd, fwd
		}

		top := heap.Pop(&cur.open).(openEntry)
		n := top.node
		cur.closed[n] = struct{}{}
		gn := cur.g[n]

		if other.isClosed(n) {
			offer(n, gn+other.g[n])
		}

		for _, e := range g.Neighbors(n) {
			if cur.isClosed(e.To) {
				continue
			}
			ng := gn + e.Cost
			if old, seen := cur.g[e.To]; seen && ng >= old {
				continue
			}
			cur.g[e.To] = ng
			cur.parent[e.To] = n
			cur.push(e.To, ng)

			if og, ok := other.g[e.To]; ok {
				offer(e.To, ng+og)
			}
		}
	}

	if meet < 0 {
		return Route{}, false
	}
	return Route{Nodes: stitch(fwd, bwd, meet, from, to), Cost: best}, true
}

// stitch joins origin→meet from the forward tree with meet→goal from the
// backward tree.
func stitch(fwd, bwd *frontier, meet, from, to navmesh.NodeID) []navmesh.NodeID {
	nodes := make([]navmesh.NodeID, 0, 32)
	for n := meet; ; n = fwd.parent[n] {
		nodes = append(nodes, n)
		if n == from {
			break
		}
	}
	slices.Reverse(nodes)

	for n := meet; n != to; {
		n = bwd.parent[n]
		nodes = append(nodes, n)
	}
	return nodes
}
