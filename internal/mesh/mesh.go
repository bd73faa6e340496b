// Package mesh converts 2D height grids into closed triangulated solids.
//
// A HeightGrid is extruded down to a flat base: top surface follows the
// samples, bottom surface sits at the base elevation, and four wall strips
// close the boundary. The result is watertight for any grid of at least
// 2x2 samples with finite heights.
package mesh

import (
	"errors"
	"fmt"
	"math"
)

// ErrGridTooSmall is returned when a grid has fewer than two rows or columns.
// A single row or column has no interior cells and cannot form a solid.
var ErrGridTooSmall = errors.New("height grid must be at least 2x2")

// ErrRaggedGrid is returned when grid rows have differing lengths.
var ErrRaggedGrid = errors.New("height grid rows must all have the same length")

// ErrInvalidCellSize is returned when the physical cell size is not positive.
var ErrInvalidCellSize = errors.New("cell size must be positive")

// HeightGrid is a row-major matrix of sample heights in millimeters.
// Grids are produced once and consumed once; they are never mutated
// after handoff. Producers must replace non-finite samples before
// handing a grid to BuildSolid.
type HeightGrid [][]float64

// Dims returns the number of rows and columns. A nil or empty grid
// reports zero columns.
func (g HeightGrid) Dims() (rows, cols int) {
	rows = len(g)
	if rows > 0 {
		cols = len(g[0])
	}
	return rows, cols
}

// MinMax returns the smallest and largest sample in the grid.
// Both are zero for an empty grid.
func (g HeightGrid) MinMax() (min, max float64) {
	first := true
	for _, row := range g {
		for _, v := range row {
			if first {
				min, max = v, v
				first = false
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max
}

// Vertex is a point in millimeters. Vertices live in one flat sequence
// and are referenced by index only.
type Vertex struct {
	X, Y, Z float64
}

// Face is an ordered vertex-index triple, wound counter-clockwise
// relative to its outward normal.
type Face [3]int

// Mesh is a triangulated solid: a vertex sequence plus faces indexing it.
type Mesh struct {
	Vertices []Vertex
	Faces    []Face
}

// Bounds returns the physical extents of the mesh (width along X, depth
// along Y, height along Z) in the same units as its vertices.
func (m *Mesh) Bounds() (width, depth, height float64) {
	if len(m.Vertices) == 0 {
		return 0, 0, 0
	}
	minX, maxX := m.Vertices[0].X, m.Vertices[0].X
	minY, maxY := m.Vertices[0].Y, m.Vertices[0].Y
	minZ, maxZ := m.Vertices[0].Z, m.Vertices[0].Z
	for _, v := range m.Vertices[1:] {
		minX = math.Min(minX, v.X)
		maxX = math.Max(maxX, v.X)
		minY = math.Min(minY, v.Y)
		maxY = math.Max(maxY, v.Y)
		minZ = math.Min(minZ, v.Z)
		maxZ = math.Max(maxZ, v.Z)
	}
	return maxX - minX, maxY - minY, maxZ - minZ
}

// BuildSolid extrudes a height grid into a closed solid. The top surface
// vertex for grid position (row, col) is (col*cellSize, row*cellSize,
// grid[row][col]); the bottom layer repeats the same x,y at baseElevation
// and is appended after the top layer, so bottom index = top index +
// rows*cols.
//
// For a valid grid the result has exactly 2*rows*cols vertices and
// 4*(rows-1)*(cols-1) + 4*(rows-1) + 4*(cols-1) faces, and every
// undirected edge is shared by exactly two faces in opposite directions.
func BuildSolid(grid HeightGrid, cellSize, baseElevation float64) (*Mesh, error) {
	rows, cols := grid.Dims()
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrGridTooSmall, rows, cols)
	}
	for i, row := range grid {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrRaggedGrid, i, len(row), cols)
		}
	}
	if cellSize <= 0 || math.IsNaN(cellSize) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidCellSize, cellSize)
	}

	m := &Mesh{
		Vertices: make([]Vertex, 0, 2*rows*cols),
		Faces:    make([]Face, 0, 4*(rows-1)*(cols-1)+4*(rows-1)+4*(cols-1)),
	}

	// Top surface vertices, then the bottom layer at the base elevation.
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Vertices = append(m.Vertices, Vertex{
				X: float64(c) * cellSize,
				Y: float64(r) * cellSize,
				Z: grid[r][c],
			})
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m.Vertices = append(m.Vertices, Vertex{
				X: float64(c) * cellSize,
				Y: float64(r) * cellSize,
				Z: baseElevation,
			})
		}
	}

	offset := rows * cols

	// Top surface: each cell quad splits into two triangles wound so the
	// normal points up (non-negative z for non-overhanging fields).
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			idx := r*cols + c
			m.Faces = append(m.Faces,
				Face{idx, idx + 1, idx + cols},
				Face{idx + 1, idx + cols + 1, idx + cols},
			)
		}
	}

	// Bottom surface: same quads with reversed winding so the normal
	// points down.
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			idx := r*cols + c + offset
			m.Faces = append(m.Faces,
				Face{idx, idx + cols, idx + 1},
				Face{idx + 1, idx + cols, idx + cols + 1},
			)
		}
	}

	// Side walls: two triangles per boundary-vertex pair on each of the
	// four grid edges, wound so the outward normal faces away from the
	// grid interior.

	// Left edge (col 0, outward normal -x).
	for r := 0; r < rows-1; r++ {
		top := r * cols
		bot := top + offset
		m.Faces = append(m.Faces,
			Face{top, top + cols, bot},
			Face{bot, top + cols, bot + cols},
		)
	}

	// Right edge (col cols-1, outward normal +x).
	for r := 0; r < rows-1; r++ {
		top := r*cols + cols - 1
		bot := top + offset
		m.Faces = append(m.Faces,
			Face{top, bot, top + cols},
			Face{bot, bot + cols, top + cols},
		)
	}

	// Front edge (row 0, outward normal -y).
	for c := 0; c < cols-1; c++ {
		top := c
		bot := top + offset
		m.Faces = append(m.Faces,
			Face{top, bot, top + 1},
			Face{bot, bot + 1, top + 1},
		)
	}

	// Back edge (row rows-1, outward normal +y).
	for c := 0; c < cols-1; c++ {
		top := (rows-1)*cols + c
		bot := top + offset
		m.Faces = append(m.Faces,
			Face{top, top + 1, bot},
			Face{bot, top + 1, bot + 1},
		)
	}

	return m, nil
}
