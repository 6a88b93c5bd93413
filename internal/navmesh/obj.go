package navmesh

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Lines longer than this are rejected as malformed.
const maxOBJLine = 1 << 20

// LoadOBJ reads a Wavefront OBJ navmesh from disk.
func LoadOBJ(path string) (Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mesh{}, fmt.Errorf("opening navmesh %s: %w", path, err)
	}
	defer f.Close()

	mesh, err := ParseOBJ(f)
	if err != nil {
		return Mesh{}, fmt.Errorf("parsing navmesh %s: %w", path, err)
	}

	slog.Info("navmesh loaded",
		"file", path,
		"vertices", len(mesh.Vertices),
		"faces", len(mesh.Faces),
		"fingerprint", mesh.ShortFingerprint())
	return mesh, nil
}

// ParseOBJ reads "v" and "f" records from OBJ text. Face corners may use the
// i, i/t, i//n and i/t/n forms and negative (relative) indices. Polygons with
// more than three corners are fan-triangulated. Other records are ignored.
func ParseOBJ(r io.Reader) (Mesh, error) {
	var mesh Mesh

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxOBJLine)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseVertex(fields[1:])
			if err != nil {
				return Mesh{}, fmt.Errorf("%w: line %d: %v", ErrMalformedMesh, line, err)
			}
			mesh.Vertices = append(mesh.Vertices, v)

		case "f":
			if len(fields) < 4 {
				return Mesh{}, fmt.Errorf("%w: line %d: face needs at least 3 corners, got %d",
					ErrMalformedMesh, line, len(fields)-1)
			}
			corners := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				idx, err := parseCorner(tok, len(mesh.Vertices))
				if err != nil {
					return Mesh{}, fmt.Errorf("%w: line %d: %v", ErrMalformedMesh, line, err)
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				mesh.Faces = append(mesh.Faces, Face{corners[0], corners[i], corners[i+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Mesh{}, fmt.Errorf("reading obj: %w", err)
	}

	return mesh, nil
}

func parseVertex(args []string) (Vec3, error) {
	if len(args) < 3 {
		return Vec3{}, fmt.Errorf("vertex needs 3 coordinates, got %d", len(args))
	}
	var c [3]float64
	for i := range c {
		f, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return Vec3{}, fmt.Errorf("vertex coordinate %q: %w", args[i], err)
		}
		c[i] = f
	}
	v := Vec3{X: c[0], Y: c[1], Z: c[2]}
	if !v.Finite() {
		return Vec3{}, fmt.Errorf("vertex %v is not finite", v)
	}
	return v, nil
}

// parseCorner resolves one face corner to a zero-based vertex index.
// Range checks against the final vertex list happen in Build.
func parseCorner(tok string, seen int) (int, error) {
	if i := strings.IndexByte(tok, '/'); i >= 0 {
		tok = tok[:i]
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("face index %q: %w", tok, err)
	}
	switch {
	case n > 0:
		return n - 1, nil
	case n < 0:
		return seen + n, nil
	}
	return 0, errors.New("face index 0 is invalid (indices are 1-based)")
}
