package navmesh

import (
	"math"
	"slices"
)

// Grid coordinates are clamped so shell arithmetic never overflows.
const maxCellCoord = math.MaxInt32 / 4

// cellKey addresses one cube of the spatial grid.
type cellKey struct {
	x, y, z int64
}

// gridIndex buckets nodes into uniform cubes of side size.
// Only occupied cells are stored.
type gridIndex struct {
	size     float64
	cells    map[cellKey][]NodeID
	min, max cellKey // bounds of occupied cells
}

func newGridIndex(nodes []Node, size float64) *gridIndex {
	ix := &gridIndex{
		size:  size,
		cells: make(map[cellKey][]NodeID, len(nodes)),
	}
	for i := range nodes {
		c := ix.cellOf(nodes[i].Pos)
		if i == 0 {
			ix.min, ix.max = c, c
		} else {
			ix.min = cellKey{min(ix.min.x, c.x), min(ix.min.y, c.y), min(ix.min.z, c.z)}
			ix.max = cellKey{max(ix.max.x, c.x), max(ix.max.y, c.y), max(ix.max.z, c.z)}
		}
		ix.cells[c] = append(ix.cells[c], NodeID(i))
	}
	return ix
}

func (ix *gridIndex) coord(v float64) int64 {
	c := math.Floor(v / ix.size)
	if c > maxCellCoord {
		return maxCellCoord
	}
	if c < -maxCellCoord {
		return -maxCellCoord
	}
	return int64(c)
}

func (ix *gridIndex) cellOf(p Vec3) cellKey {
	return cellKey{ix.coord(p.X), ix.coord(p.Y), ix.coord(p.Z)}
}

// nearest scans Chebyshev shells around the query cell, starting at the first
// shell that touches occupied space. After shell r every unseen node is at
// least r*size away, so the scan stops once the best candidate is closer.
func (ix *gridIndex) nearest(p Vec3, nodes []Node) NodeID {
	c := ix.cellOf(p)
	rFrom := max(gap(c.x, ix.min.x, ix.max.x), gap(c.y, ix.min.y, ix.max.y), gap(c.z, ix.min.z, ix.max.z))
	rTo := max(reach(c.x, ix.min.x, ix.max.x), reach(c.y, ix.min.y, ix.max.y), reach(c.z, ix.min.z, ix.max.z))

	best := NodeID(-1)
	bestDist := math.Inf(1)
	for r := rFrom; r <= rTo; r++ {
		ix.scanShell(c, r, func(id NodeID) {
			d := nodes[id].Pos.Dist(p)
			if d < bestDist || (d == bestDist && id < best) {
				best, bestDist = id, d
			}
		})
		if best >= 0 && bestDist < float64(r)*ix.size {
			break
		}
	}
	return best
}

// scanShell visits every occupied cell at Chebyshev distance exactly r from c.
func (ix *gridIndex) scanShell(c cellKey, r int64, visit func(NodeID)) {
	x0, x1 := max(c.x-r, ix.min.x), min(c.x+r, ix.max.x)
	y0, y1 := max(c.y-r, ix.min.y), min(c.y+r, ix.max.y)
	z0, z1 := max(c.z-r, ix.min.z), min(c.z+r, ix.max.z)

	visitCell := func(x, y, z int64) {
		for _, id := range ix.cells[cellKey{x, y, z}] {
			visit(id)
		}
	}

	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			if abs64(x-c.x) == r || abs64(y-c.y) == r {
				for z := z0; z <= z1; z++ {
					visitCell(x, y, z)
				}
				continue
			}
			// Column crosses the shell interior: only its two caps belong to it.
			if z := c.z - r; z >= z0 && z <= z1 {
				visitCell(x, y, z)
			}
			if z := c.z + r; r > 0 && z >= z0 && z <= z1 {
				visitCell(x, y, z)
			}
		}
	}
}

func (ix *gridIndex) within(p Vec3, radius float64, nodes []Node) []NodeID {
	lo := ix.cellOf(Vec3{X: p.X - radius, Y: p.Y - radius, Z: p.Z - radius})
	hi := ix.cellOf(Vec3{X: p.X + radius, Y: p.Y + radius, Z: p.Z + radius})
	lo = cellKey{max(lo.x, ix.min.x), max(lo.y, ix.min.y), max(lo.z, ix.min.z)}
	hi = cellKey{min(hi.x, ix.max.x), min(hi.y, ix.max.y), min(hi.z, ix.max.z)}
	if lo.x > hi.x || lo.y > hi.y || lo.z > hi.z {
		return nil
	}

	var out []NodeID
	collect := func(ids []NodeID) {
		for _, id := range ids {
			if nodes[id].Pos.Dist(p) <= radius {
				out = append(out, id)
			}
		}
	}

	span := float64(hi.x-lo.x+1) * float64(hi.y-lo.y+1) * float64(hi.z-lo.z+1)
	if span > float64(len(ix.cells)) {
		// Box covers more cells than are occupied: walk the occupied ones.
		for k, ids := range ix.cells {
			if k.x >= lo.x && k.x <= hi.x && k.y >= lo.y && k.y <= hi.y && k.z >= lo.z && k.z <= hi.z {
				collect(ids)
			}
		}
	} else {
		for x := lo.x; x <= hi.x; x++ {
			for y := lo.y; y <= hi.y; y++ {
				for z := lo.z; z <= hi.z; z++ {
					collect(ix.cells[cellKey{x, y, z}])
				}
			}
		}
	}

	slices.Sort(out)
	return out
}

// gap returns how many cells v lies outside [lo, hi] (0 when inside).
func gap(v, lo, hi int64) int64 {
	switch {
	case v < lo:
		return lo - v
	case v > hi:
		return v - hi
	}
	return 0
}

// reach returns the distance in cells from v to the farthest edge of [lo, hi].
func reach(v, lo, hi int64) int64 {
	return max(abs64(v-lo), abs64(v-hi))
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
