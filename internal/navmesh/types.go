package navmesh

import "math"

// Vec3 is a point in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Dist returns the Euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Lerp interpolates linearly from v (t=0) to o (t=1).
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return Vec3{
		X: v.X + t*(o.X-v.X),
		Y: v.Y + t*(o.Y-v.Y),
		Z: v.Z + t*(o.Z-v.Z),
	}
}

// Finite reports whether all components are neither NaN nor infinite.
func (v Vec3) Finite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Face is a triangle given as three zero-based vertex indices.
type Face [3]int

// Mesh is raw navmesh geometry as produced by a loader.
// Faces are consumed by Build and not retained by the graph.
type Mesh struct {
	Vertices []Vec3
	Faces    []Face
}
