// Package stl serializes meshes to the binary STL triangle-soup format.
//
// The format is a fixed little-endian layout: an 80-byte header, a uint32
// triangle count, then 50 bytes per triangle (normal, three vertices, and
// a two-byte attribute fixed at zero). Output size is therefore always
// 84 + 50*faces bytes.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/formlift/formlift/internal/mesh"
)

const (
	headerSize   = 80
	triangleSize = 50 // 12 normal + 3*12 vertices + 2 attribute
)

// defaultHeader fills the free-form 80-byte slot. Content is irrelevant
// to readers; only the length matters.
var defaultHeader = "formlift heightmap solid"

// FileSize returns the exact byte size of a binary STL file containing
// the given number of triangles.
func FileSize(faces int) int64 {
	return int64(headerSize) + 4 + int64(faces)*triangleSize
}

// Write serializes the mesh to w. Per-face normals are computed from the
// vertex winding; degenerate triangles (zero-magnitude cross product) get
// the fallback normal (0,0,1) rather than aborting the export.
func Write(m *mesh.Mesh, w io.Writer) error {
	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	copy(header[:], defaultHeader)
	for i := len(defaultHeader); i < headerSize; i++ {
		header[i] = ' '
	}
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var count [4]byte
	binary.LittleEndian.PutUint32(count[:], uint32(len(m.Faces)))
	if _, err := bw.Write(count[:]); err != nil {
		return fmt.Errorf("write triangle count: %w", err)
	}

	var rec [triangleSize]byte
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(m.Vertices) {
				return fmt.Errorf("face %d references out-of-range vertex %d", i, idx)
			}
		}
		v0, v1, v2 := m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]
		n := Normal(v0, v1, v2)

		putVec3(rec[0:], n[0], n[1], n[2])
		putVec3(rec[12:], v0.X, v0.Y, v0.Z)
		putVec3(rec[24:], v1.X, v1.Y, v1.Z)
		putVec3(rec[36:], v2.X, v2.Y, v2.Z)
		rec[48], rec[49] = 0, 0

		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("write triangle %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// WriteFile serializes the mesh to the named file, creating or
// overwriting it. On error the file may be left truncated; callers must
// treat any error as no valid output.
func WriteFile(m *mesh.Mesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(m, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Normal computes the unit normal of the triangle (v0, v1, v2) from the
// cross product of its edges. A zero-magnitude cross product yields the
// fallback (0,0,1) so degenerate geometry never aborts an export.
func Normal(v0, v1, v2 mesh.Vertex) [3]float64 {
	e1 := [3]float64{v1.X - v0.X, v1.Y - v0.Y, v1.Z - v0.Z}
	e2 := [3]float64{v2.X - v0.X, v2.Y - v0.Y, v2.Z - v0.Z}
	n := [3]float64{
		e1[1]*e2[2] - e1[2]*e2[1],
		e1[2]*e2[0] - e1[0]*e2[2],
		e1[0]*e2[1] - e1[1]*e2[0],
	}
	mag := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if mag == 0 {
		return [3]float64{0, 0, 1}
	}
	return [3]float64{n[0] / mag, n[1] / mag, n[2] / mag}
}

func putVec3(b []byte, x, y, z float64) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(x)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(y)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(z)))
}
