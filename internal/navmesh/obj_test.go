package navmesh_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/navpath/internal/navmesh"
	"github.com/udisondev/navpath/internal/testutil"
)

func TestParseOBJ(t *testing.T) {
	src := `# exported navmesh
o NavMesh
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0.5
vn 0 0 1
vt 0 0
s off
f 1 2 3
f 1/1 3/1 4/1
`
	m, err := navmesh.ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []navmesh.Vec3{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1, Z: 0.5}}, m.Vertices)
	assert.Equal(t, []navmesh.Face{{0, 1, 2}, {0, 2, 3}}, m.Faces)
}

func TestParseOBJCornerForms(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
f 1//1 2//1 3//1
f 1/1/1 2/2/1 3/3/1
f -3 -2 -1
`
	m, err := navmesh.ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, m.Faces, 3)
	for _, f := range m.Faces {
		assert.Equal(t, navmesh.Face{0, 1, 2}, f)
	}
}

func TestParseOBJFanTriangulation(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 2 1 0
v 1 2 0
v 0 1 0
f 1 2 3 4 5
`
	m, err := navmesh.ParseOBJ(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []navmesh.Face{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}}, m.Faces)
}

func TestParseOBJMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"short vertex", "v 1 2\n"},
		{"bad coordinate", "v 1 x 2\n"},
		{"nan coordinate", "v NaN 0 0\n"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 1 1 0\nf 0 1 2\n"},
		{"bad index", "v 0 0 0\nv 1 0 0\nv 1 1 0\nf 1 a 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := navmesh.ParseOBJ(strings.NewReader(tt.src))
			assert.ErrorIs(t, err, navmesh.ErrMalformedMesh)
		})
	}
}

func TestParseOBJOutOfRangeFailsBuild(t *testing.T) {
	// Indices are resolved against the final vertex list in Build.
	m, err := navmesh.ParseOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 1 1 0\nf 1 2 9\n"))
	require.NoError(t, err)

	_, err = navmesh.Build(m)
	assert.ErrorIs(t, err, navmesh.ErrMalformedMesh)
}

func TestLoadOBJRoundTrip(t *testing.T) {
	want := testutil.Terrain(4, 3, 2.5, 1.75, 9)
	path := filepath.Join(t.TempDir(), "terrain.obj")
	require.NoError(t, os.WriteFile(path, []byte(testutil.OBJ(want)), 0o644))

	got, err := navmesh.LoadOBJ(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, want.Fingerprint(), got.Fingerprint())
}

func TestLoadOBJMissingFile(t *testing.T) {
	_, err := navmesh.LoadOBJ(filepath.Join(t.TempDir(), "missing.obj"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
