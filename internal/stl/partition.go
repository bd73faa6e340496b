package stl

import (
	"fmt"
	"sort"

	"github.com/formlift/formlift/internal/mesh"
)

// PartitionByMaterial splits a mesh's face set by material id into one
// sub-mesh per distinct id. The vertex sequence is shared across all
// sub-meshes; unused vertices are retained rather than pruned. Every face
// of the input appears in exactly one sub-mesh. Ids selecting zero faces
// emit nothing.
func PartitionByMaterial(m *mesh.Mesh, materials []int) (map[int]*mesh.Mesh, error) {
	if len(materials) != len(m.Faces) {
		return nil, fmt.Errorf("material assignment has %d entries for %d faces", len(materials), len(m.Faces))
	}

	parts := make(map[int]*mesh.Mesh)
	for i, f := range m.Faces {
		id := materials[i]
		sub, ok := parts[id]
		if !ok {
			sub = &mesh.Mesh{Vertices: m.Vertices}
			parts[id] = sub
		}
		sub.Faces = append(sub.Faces, f)
	}
	return parts, nil
}

// WriteMaterialFiles partitions the mesh by material id and writes one
// STL file per id, named <prefix>_material_<id>.stl. It returns the file
// path for each id written.
func WriteMaterialFiles(m *mesh.Mesh, materials []int, prefix string) (map[int]string, error) {
	parts, err := PartitionByMaterial(m, materials)
	if err != nil {
		return nil, err
	}

	// Stable output order so partial failures are reproducible.
	ids := make([]int, 0, len(parts))
	for id := range parts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	files := make(map[int]string, len(parts))
	for _, id := range ids {
		path := fmt.Sprintf("%s_material_%d.stl", prefix, id)
		if err := WriteFile(parts[id], path); err != nil {
			return nil, err
		}
		files[id] = path
	}
	return files, nil
}
