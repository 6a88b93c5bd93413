package testutil

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/udisondev/navpath/internal/navmesh"
)

// Square returns the unit square (0,0,0)-(1,1,0) split along the 0→2
// diagonal into two triangles.
func Square() navmesh.Mesh {
	return navmesh.Mesh{
		Vertices: []navmesh.Vec3{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 1, Y: 1, Z: 0},
			{X: 0, Y: 1, Z: 0},
		},
		Faces: []navmesh.Face{{0, 1, 2}, {0, 2, 3}},
	}
}

// Grid returns a flat w×h cell grid in the XY plane with the given spacing.
// Every cell is split into two triangles along its (x,y)→(x+1,y+1) diagonal.
func Grid(w, h int, spacing float64) navmesh.Mesh {
	return GridWithHoles(w, h, spacing, nil)
}

// GridWithHoles is Grid with the cells for which hole returns true left out.
func GridWithHoles(w, h int, spacing float64, hole func(cx, cy int) bool) navmesh.Mesh {
	var m navmesh.Mesh
	for y := 0; y <= h; y++ {
		for x := 0; x <= w; x++ {
			m.Vertices = append(m.Vertices, navmesh.Vec3{X: float64(x) * spacing, Y: float64(y) * spacing})
		}
	}
	v := func(x, y int) int { return y*(w+1) + x }
	for cy := 0; cy < h; cy++ {
		for cx := 0; cx < w; cx++ {
			if hole != nil && hole(cx, cy) {
				continue
			}
			a, b, c, d := v(cx, cy), v(cx+1, cy), v(cx+1, cy+1), v(cx, cy+1)
			m.Faces = append(m.Faces, navmesh.Face{a, b, c}, navmesh.Face{a, c, d})
		}
	}
	return m
}

// Terrain is Grid with pseudo-random heights so that edge costs vary in 3D.
func Terrain(w, h int, spacing, amplitude float64, seed uint64) navmesh.Mesh {
	m := Grid(w, h, spacing)
	rng := rand.New(rand.NewPCG(seed, seed+1))
	for i := range m.Vertices {
		m.Vertices[i].Z = rng.Float64() * amplitude
	}
	return m
}

// TwoIslands returns two unit squares 10 units apart on the X axis with no
// shared vertex. Vertices 0-3 form the west island, 4-7 the east one.
func TwoIslands() navmesh.Mesh {
	west := Square()
	m := navmesh.Mesh{Vertices: append([]navmesh.Vec3(nil), west.Vertices...)}
	for _, p := range west.Vertices {
		m.Vertices = append(m.Vertices, navmesh.Vec3{X: p.X + 10, Y: p.Y, Z: p.Z})
	}
	m.Faces = []navmesh.Face{{0, 1, 2}, {0, 2, 3}, {4, 5, 6}, {4, 6, 7}}
	return m
}

// OBJ renders a mesh as Wavefront OBJ text with 1-based indices.
func OBJ(m navmesh.Mesh) string {
	var sb strings.Builder
	sb.WriteString("# navpath test mesh\n")
	for _, v := range m.Vertices {
		fmt.Fprintf(&sb, "v %v %v %v\n", v.X, v.Y, v.Z)
	}
	for _, f := range m.Faces {
		fmt.Fprintf(&sb, "f %d %d %d\n", f[0]+1, f[1]+1, f[2]+1)
	}
	return sb.String()
}

// ShortestCost runs a plain Dijkstra between two nodes. Used as the
// reference for search results.
func ShortestCost(g *navmesh.Graph, from, to navmesh.NodeID) (float64, bool) {
	dist := make([]float64, g.Len())
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[from] = 0

	pq := &distHeap{{node: from}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(distItem)
		if cur.dist > dist[cur.node] {
			continue
		}
		if cur.node == to {
			return cur.dist, true
		}
		for _, e := range g.Neighbors(cur.node) {
			if nd := cur.dist + e.Cost; nd < dist[e.To] {
				dist[e.To] = nd
				heap.Push(pq, distItem{node: e.To, dist: nd})
			}
		}
	}
	return 0, false
}

// RouteCost sums edge costs along consecutive nodes. Fails the lookup when
// two consecutive nodes are not adjacent.
func RouteCost(g *navmesh.Graph, nodes []navmesh.NodeID) (float64, bool) {
	var total float64
	for i := 1; i < len(nodes); i++ {
		found := false
		for _, e := range g.Neighbors(nodes[i-1]) {
			if e.To == nodes[i] {
				total += e.Cost
				found = true
				break
			}
		}
		if !found {
			return 0, false
		}
	}
	return total, true
}

type distItem struct {
	node navmesh.NodeID
	dist float64
}

type distHeap []distItem

func (h distHeap) Len() int           { return len(h) }
func (h distHeap) Less(i, j int) bool { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x any)        { *h = append(*h, x.(distItem)) }
func (h *distHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
