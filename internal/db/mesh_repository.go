package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/navpath/internal/navmesh"
)

var (
	// ErrMeshNotFound is returned when no mesh is stored under a name.
	ErrMeshNotFound = errors.New("navmesh not found")
	// ErrMeshCorrupted is returned when stored rows do not match the recorded
	// counts or fingerprint.
	ErrMeshCorrupted = errors.New("stored navmesh is corrupted")
)

// MeshInfo describes a stored navmesh without its geometry.
type MeshInfo struct {
	ID          int64
	Name        string
	Checksum    []byte
	VertexCount int
	FaceCount   int
	CreatedAt   time.Time
}

// MeshRepository stores navmesh geometry in PostgreSQL.
type MeshRepository struct {
	pool *pgxpool.Pool
}

// NewMeshRepository creates a new mesh repository.
func NewMeshRepository(pool *pgxpool.Pool) *MeshRepository {
	return &MeshRepository{pool: pool}
}

// Save stores mesh under name in a single transaction, replacing any mesh
// previously stored under the same name.
func (r *MeshRepository) Save(ctx context.Context, name string, mesh navmesh.Mesh) error {
	sum := mesh.Fingerprint()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction for navmesh %q: %w", name, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "mesh", name, "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM navmeshes WHERE name = $1`, name); err != nil {
		return fmt.Errorf("deleting old navmesh %q: %w", name, err)
	}

	var meshID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO navmeshes (name, checksum, vertex_count, face_count)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		name, sum[:], len(mesh.Vertices), len(mesh.Faces),
	).Scan(&meshID)
	if err != nil {
		return fmt.Errorf("inserting navmesh %q: %w", name, err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"navmesh_vertices"},
		[]string{"mesh_id", "idx", "x", "y", "z"},
		pgx.CopyFromSlice(len(mesh.Vertices), func(i int) ([]any, error) {
			v := mesh.Vertices[i]
			return []any{meshID, int32(i), v.X, v.Y, v.Z}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("inserting vertices for navmesh %q: %w", name, err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"navmesh_faces"},
		[]string{"mesh_id", "idx", "a", "b", "c"},
		pgx.CopyFromSlice(len(mesh.Faces), func(i int) ([]any, error) {
			f := mesh.Faces[i]
			return []any{meshID, int32(i), int32(f[0]), int32(f[1]), int32(f[2])}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("inserting faces for navmesh %q: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.Info("navmesh stored",
		"mesh", name,
		"vertices", len(mesh.Vertices),
		"faces", len(mesh.Faces),
		"fingerprint", mesh.ShortFingerprint())
	return nil
}

// Info returns metadata of the mesh stored under name.
func (r *MeshRepository) Info(ctx context.Context, name string) (MeshInfo, error) {
	var info MeshInfo
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, checksum, vertex_count, face_count, created_at
		 FROM navmeshes WHERE name = $1`, name,
	).Scan(&info.ID, &info.Name, &info.Checksum, &info.VertexCount, &info.FaceCount, &info.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MeshInfo{}, fmt.Errorf("%w: %q", ErrMeshNotFound, name)
		}
		return MeshInfo{}, fmt.Errorf("querying navmesh %q: %w", name, err)
	}
	return info, nil
}

// Load reads the mesh stored under name and verifies it against the recorded
// counts and fingerprint.
func (r *MeshRepository) Load(ctx context.Context, name string) (navmesh.Mesh, error) {
	info, err := r.Info(ctx, name)
	if err != nil {
		return navmesh.Mesh{}, err
	}

	mesh := navmesh.Mesh{
		Vertices: make([]navmesh.Vec3, 0, info.VertexCount),
		Faces:    make([]navmesh.Face, 0, info.FaceCount),
	}

	rows, err := r.pool.Query(ctx,
		`SELECT x, y, z FROM navmesh_vertices WHERE mesh_id = $1 ORDER BY idx`, info.ID)
	if err != nil {
		return navmesh.Mesh{}, fmt.Errorf("loading vertices for navmesh %q: %w", name, err)
	}
	for rows.Next() {
		var v navmesh.Vec3
		if err := rows.Scan(&v.X, &v.Y, &v.Z); err != nil {
			rows.Close()
			return navmesh.Mesh{}, fmt.Errorf("scanning vertex row: %w", err)
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return navmesh.Mesh{}, fmt.Errorf("iterating vertex rows: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT a, b, c FROM navmesh_faces WHERE mesh_id = $1 ORDER BY idx`, info.ID)
	if err != nil {
		return navmesh.Mesh{}, fmt.Errorf("loading faces for navmesh %q: %w", name, err)
	}
	for rows.Next() {
		var a, b, c int32
		if err := rows.Scan(&a, &b, &c); err != nil {
			rows.Close()
			return navmesh.Mesh{}, fmt.Errorf("scanning face row: %w", err)
		}
		mesh.Faces = append(mesh.Faces, navmesh.Face{int(a), int(b), int(c)})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return navmesh.Mesh{}, fmt.Errorf("iterating face rows: %w", err)
	}

	if len(mesh.Vertices) != info.VertexCount || len(mesh.Faces) != info.FaceCount {
		return navmesh.Mesh{}, fmt.Errorf("%w: %q has %d vertices and %d faces, expected %d and %d",
			ErrMeshCorrupted, name, len(mesh.Vertices), len(mesh.Faces), info.VertexCount, info.FaceCount)
	}
	if sum := mesh.Fingerprint(); !bytes.Equal(sum[:], info.Checksum) {
		return navmesh.Mesh{}, fmt.Errorf("%w: %q fingerprint mismatch", ErrMeshCorrupted, name)
	}

	slog.Info("navmesh loaded",
		"mesh", name,
		"vertices", len(mesh.Vertices),
		"faces", len(mesh.Faces),
		"fingerprint", mesh.ShortFingerprint())
	return mesh, nil
}

// List returns metadata of all stored meshes ordered by name.
func (r *MeshRepository) List(ctx context.Context) ([]MeshInfo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, checksum, vertex_count, face_count, created_at
		 FROM navmeshes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing navmeshes: %w", err)
	}
	defer rows.Close()

	var out []MeshInfo
	for rows.Next() {
		var info MeshInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.Checksum, &info.VertexCount, &info.FaceCount, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning navmesh row: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating navmesh rows: %w", err)
	}
	return out, nil
}

// Delete removes the mesh stored under name. Deleting a missing mesh is not
// an error.
func (r *MeshRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM navmeshes WHERE name = $1`, name); err != nil {
		return fmt.Errorf("deleting navmesh %q: %w", name, err)
	}
	return nil
}
