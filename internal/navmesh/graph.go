package navmesh

import (
	"fmt"
	"log/slog"
	"math"
)

// NodeID is the arena index of a graph node.
type NodeID int32

// Edge is a weighted link to a neighbouring node.
type Edge struct {
	To   NodeID
	Cost float64 // Euclidean distance between the two node positions
}

// Node is a walkable mesh vertex.
type Node struct {
	Pos    Vec3
	Vertex int // index of the source vertex in Mesh.Vertices
	Edges  []Edge
}

// Graph is the searchable connectivity graph of a navmesh.
// Thread-safe for reads: the graph is never modified after Build.
type Graph struct {
	nodes      []Node
	component  []int32
	components int
	edges      int
	index      *gridIndex
}

// edgeKey identifies an undirected vertex pair (a < b).
type edgeKey struct {
	a, b int
}

// Build converts raw mesh geometry into a Graph.
// Only vertices referenced by at least one face become nodes.
// Disconnected islands are allowed; they are logged and labelled so that
// queries between them fail fast.
func Build(mesh Mesh) (*Graph, error) {
	if len(mesh.Faces) == 0 {
		return nil, fmt.Errorf("%w: mesh has no faces", ErrMalformedMesh)
	}

	nodeOf := make([]NodeID, len(mesh.Vertices))
	for i := range nodeOf {
		nodeOf[i] = -1
	}

	g := &Graph{
		nodes: make([]Node, 0, len(mesh.Vertices)),
	}
	seen := make(map[edgeKey]struct{}, len(mesh.Faces)*3/2+1)

	for fi, face := range mesh.Faces {
		for _, vi := range face {
			if vi < 0 || vi >= len(mesh.Vertices) {
				return nil, fmt.Errorf("%w: face %d references vertex %d (have %d)",
					ErrMalformedMesh, fi, vi, len(mesh.Vertices))
			}
			if !mesh.Vertices[vi].Finite() {
				return nil, fmt.Errorf("%w: face %d uses vertex %d with non-finite position",
					ErrMalformedMesh, fi, vi)
			}
		}

		var ids [3]NodeID
		for k, vi := range face {
			if nodeOf[vi] < 0 {
				if len(g.nodes) == math.MaxInt32 {
					return nil, fmt.Errorf("%w: too many vertices", ErrMalformedMesh)
				}
				nodeOf[vi] = NodeID(len(g.nodes))
				g.nodes = append(g.nodes, Node{Pos: mesh.Vertices[vi], Vertex: vi})
			}
			ids[k] = nodeOf[vi]
		}

		g.link(seen, face[0], face[1], ids[0], ids[1])
		g.link(seen, face[1], face[2], ids[1], ids[2])
		g.link(seen, face[2], face[0], ids[2], ids[0])
	}

	g.labelComponents()
	g.index = newGridIndex(g.nodes, g.meanEdgeLength())

	slog.Info("navmesh graph built",
		"vertices", len(mesh.Vertices),
		"faces", len(mesh.Faces),
		"nodes", len(g.nodes),
		"edges", g.edges,
		"components", g.components)
	if g.components > 1 {
		slog.Warn("navmesh has disconnected islands, queries between them yield no path",
			"components", g.components)
	}

	return g, nil
}

// link adds the undirected edge between two nodes once.
func (g *Graph) link(seen map[edgeKey]struct{}, va, vb int, a, b NodeID) {
	if va == vb {
		return // degenerate face corner
	}
	key := edgeKey{va, vb}
	if vb < va {
		key = edgeKey{vb, va}
	}
	if _, dup := seen[key]; dup {
		return
	}
	seen[key] = struct{}{}

	cost := g.nodes[a].Pos.Dist(g.nodes[b].Pos)
	g.nodes[a].Edges = append(g.nodes[a].Edges, Edge{To: b, Cost: cost})
	g.nodes[b].Edges = append(g.nodes[b].Edges, Edge{To: a, Cost: cost})
	g.edges++
}

// labelComponents assigns a connected component label to every node.
func (g *Graph) labelComponents() {
	g.component = make([]int32, len(g.nodes))
	for i := range g.component {
		g.component[i] = -1
	}

	stack := make([]NodeID, 0, 64)
	label := int32(0)
	for start := range g.nodes {
		if g.component[start] >= 0 {
			continue
		}
		g.component[start] = label
		stack = append(stack[:0], NodeID(start))
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range g.nodes[cur].Edges {
				if g.component[e.To] < 0 {
					g.component[e.To] = label
					stack = append(stack, e.To)
				}
			}
		}
		label++
	}
	g.components = int(label)
}

func (g *Graph) meanEdgeLength() float64 {
	if g.edges == 0 {
		return 1
	}
	var sum float64
	for i := range g.nodes {
		for _, e := range g.nodes[i].Edges {
			sum += e.Cost
		}
	}
	mean := sum / float64(2*g.edges)
	if mean <= 0 || !isFinite(mean) {
		return 1
	}
	return mean
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Components returns the number of connected components.
func (g *Graph) Components() int {
	return g.components
}

// Node returns the node with the given id. The returned value shares its
// edge slice with the graph and must not be modified.
func (g *Graph) Node(id NodeID) Node {
	return g.nodes[id]
}

// Pos returns the position of a node.
func (g *Graph) Pos(id NodeID) Vec3 {
	return g.nodes[id].Pos
}

// Neighbors returns the outgoing edges of a node (read-only).
func (g *Graph) Neighbors(id NodeID) []Edge {
	return g.nodes[id].Edges
}

// Connected reports whether two nodes belong to the same component.
func (g *Graph) Connected(a, b NodeID) bool {
	return g.component[a] == g.component[b]
}

// Bounds returns the axis-aligned bounding box of all nodes.
func (g *Graph) Bounds() (lo, hi Vec3) {
	if len(g.nodes) == 0 {
		return Vec3{}, Vec3{}
	}
	lo = g.nodes[0].Pos
	hi = lo
	for i := 1; i < len(g.nodes); i++ {
		p := g.nodes[i].Pos
		lo = Vec3{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = Vec3{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	return lo, hi
}

// Nearest snaps a position to the closest node by Euclidean distance.
// Ties resolve to the lower node id.
func (g *Graph) Nearest(p Vec3) (NodeID, error) {
	if g == nil || len(g.nodes) == 0 || g.index == nil {
		return -1, ErrNoNearestNode
	}
	if !p.Finite() {
		return -1, fmt.Errorf("%w: non-finite position %v", ErrNoNearestNode, p)
	}
	return g.index.nearest(p, g.nodes), nil
}

// Within returns the ids of all nodes whose distance to p does not exceed
// radius, in ascending order.
func (g *Graph) Within(p Vec3, radius float64) []NodeID {
	if g == nil || len(g.nodes) == 0 || g.index == nil {
		return nil
	}
	if !p.Finite() || math.IsNaN(radius) || radius < 0 {
		return nil
	}
	return g.index.within(p, radius, g.nodes)
}
