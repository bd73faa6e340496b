package stl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/formlift/formlift/internal/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionByMaterial(t *testing.T) {
	m := buildTestSolid(t, mesh.HeightGrid{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})

	// Alternate three materials across the face sequence.
	materials := make([]int, len(m.Faces))
	for i := range materials {
		materials[i] = i % 3
	}

	parts, err := PartitionByMaterial(m, materials)
	require.NoError(t, err)
	assert.Len(t, parts, 3)

	// Union of sub-mesh faces equals the original face set exactly once.
	total := 0
	seen := make(map[mesh.Face]int)
	for id, sub := range parts {
		assert.NotEmpty(t, sub.Faces, "material %d has no faces", id)
		total += len(sub.Faces)
		for _, f := range sub.Faces {
			seen[f]++
		}
		// Vertex sequence is shared, never pruned.
		assert.Equal(t, len(m.Vertices), len(sub.Vertices))
	}
	assert.Equal(t, len(m.Faces), total)
	for f, n := range seen {
		assert.Equal(t, 1, n, "face %v appears %d times", f, n)
	}
}

func TestPartitionSingleMaterial(t *testing.T) {
	m := buildTestSolid(t, mesh.HeightGrid{{1, 2}, {3, 4}})
	materials := make([]int, len(m.Faces))

	parts, err := PartitionByMaterial(m, materials)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, len(m.Faces), len(parts[0].Faces))
}

func TestPartitionLengthMismatch(t *testing.T) {
	m := buildTestSolid(t, mesh.HeightGrid{{1, 2}, {3, 4}})
	_, err := PartitionByMaterial(m, []int{1, 2})
	assert.Error(t, err)
}

func TestWriteMaterialFiles(t *testing.T) {
	m := buildTestSolid(t, mesh.HeightGrid{{1, 2}, {3, 4}})
	materials := make([]int, len(m.Faces))
	for i := range materials {
		if i >= len(materials)/2 {
			materials[i] = 7
		}
	}

	prefix := filepath.Join(t.TempDir(), "model")
	files, err := WriteMaterialFiles(m, materials, prefix)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, prefix+"_material_0.stl", files[0])
	assert.Equal(t, prefix+"_material_7.stl", files[7])

	parts, err := PartitionByMaterial(m, materials)
	require.NoError(t, err)
	for id, path := range files {
		info, err := os.Stat(path)
		require.NoError(t, err, "material %d file missing", id)
		assert.Equal(t, FileSize(len(parts[id].Faces)), info.Size())
	}
}
