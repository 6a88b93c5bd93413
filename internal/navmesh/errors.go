package navmesh

import "errors"

var (
	// ErrMalformedMesh is returned when geometry cannot be turned into a graph.
	ErrMalformedMesh = errors.New("malformed navmesh")
	// ErrNoNearestNode is returned when a position cannot be snapped to a node.
	ErrNoNearestNode = errors.New("no nearest navmesh node")
)
