package navmesh

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a BLAKE2b-256 digest of the mesh geometry.
// Two meshes with the same vertices and faces in the same order share a
// fingerprint; the mesh store uses it to detect corrupted rows.
func (m Mesh) Fingerprint() [32]byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic("blake2b: " + err.Error()) // unkeyed hash cannot fail
	}

	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeU64(uint64(len(m.Vertices)))
	for _, v := range m.Vertices {
		writeU64(math.Float64bits(v.X))
		writeU64(math.Float64bits(v.Y))
		writeU64(math.Float64bits(v.Z))
	}
	writeU64(uint64(len(m.Faces)))
	for _, f := range m.Faces {
		writeU64(uint64(int64(f[0])))
		writeU64(uint64(int64(f[1])))
		writeU64(uint64(int64(f[2])))
	}

	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// ShortFingerprint returns the first 8 bytes of the fingerprint in hex, for logs.
func (m Mesh) ShortFingerprint() string {
	sum := m.Fingerprint()
	return hex.EncodeToString(sum[:8])
}
