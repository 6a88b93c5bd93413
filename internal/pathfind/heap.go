package pathfind

import "github.com/udisondev/navpath/internal/navmesh"

// openEntry is one queued node of a frontier. Entries are never updated in
// place: an improved g pushes a new entry and the old one goes stale.
type openEntry struct {
	node navmesh.NodeID
	g    float64 // cost from the frontier origin
	f    float64 // g + heuristic
}

// openHeap implements container/heap for the open set.
// Order: lower f first; on equal f the larger g (deeper node) wins, then the
// lower node id so that results are deterministic.
type openHeap []openEntry

func (h openHeap) Len() int { return len(h) }

func (h openHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].g != h[j].g {
		return h[i].g > h[j].g
	}
	return h[i].node < h[j].node
}

func (h openHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *openHeap) Push(x any)   { *h = append(*h, x.(openEntry)) }

func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
