package pathfind

import "github.com/udisondev/navpath/internal/navmesh"

// Route is a node-level search result. Routes stored in the path cache are
// shared between readers and must not be modified.
type Route struct {
	Nodes []navmesh.NodeID
	Cost  float64 // sum of edge costs along Nodes
}

// Join appends next to r, dropping the duplicated junction node.
// It always allocates, so neither input is aliased by the result.
func (r Route) Join(next Route) Route {
	nodes := make([]navmesh.NodeID, 0, len(r.Nodes)+len(next.Nodes))
	nodes = append(nodes, r.Nodes...)
	tail := next.Nodes
	if len(nodes) > 0 && len(tail) > 0 && nodes[len(nodes)-1] == tail[0] {
		tail = tail[1:]
	}
	nodes = append(nodes, tail...)
	return Route{Nodes: nodes, Cost: r.Cost + next.Cost}
}

// Path is a walkable route in world space, owned by the caller.
// Points[0] and Points[len-1] are the literal query coordinates; the points
// in between are mesh vertices.
type Path struct {
	Points []navmesh.Vec3
	Cost   float64 // graph distance between the snapped endpoint nodes
}

// NewPath materializes a route, replacing the snapped endpoint nodes with
// the requested coordinates.
func NewPath(g *navmesh.Graph, r Route, start, goal navmesh.Vec3) *Path {
	if len(r.Nodes) <= 1 {
		if start == goal {
			return &Path{Points: []navmesh.Vec3{start}, Cost: r.Cost}
		}
		return &Path{Points: []navmesh.Vec3{start, goal}, Cost: r.Cost}
	}

	points := make([]navmesh.Vec3, len(r.Nodes))
	for i, id := range r.Nodes {
		points[i] = g.Pos(id)
	}
	points[0] = start
	points[len(points)-1] = goal
	return &Path{Points: points, Cost: r.Cost}
}

// Len returns the number of points.
func (p *Path) Len() int {
	return len(p.Points)
}

// Length returns the polyline length of Points.
func (p *Path) Length() float64 {
	var total float64
	for i := 1; i < len(p.Points); i++ {
		total += p.Points[i-1].Dist(p.Points[i])
	}
	return total
}
