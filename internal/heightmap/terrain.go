package heightmap

import (
	"math"

	"github.com/formlift/formlift/internal/mesh"
)

// DemoTerrain synthesizes rolling terrain from layered sine waves. It
// exists so the topo pipeline can be exercised without survey data.
type DemoTerrain struct {
	Size          int     // samples per axis (default 100)
	VerticalScale float64 // mm at the tallest peak (default 10)
}

func (d DemoTerrain) Produce() (mesh.HeightGrid, float64, float64, error) {
	if d.Size < 2 {
		d.Size = 100
	}
	if d.VerticalScale == 0 {
		d.VerticalScale = 10
	}

	n := d.Size
	span := 4 * math.Pi

	grid := make(mesh.HeightGrid, n)
	min, max := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		grid[i] = make([]float64, n)
		y := span * float64(i) / float64(n-1)
		for j := 0; j < n; j++ {
			x := span * float64(j) / float64(n-1)
			z := math.Sin(x)*math.Cos(y) +
				0.5*math.Sin(2*x)*math.Cos(2*y) +
				0.3*math.Sin(3*x) +
				0.2*math.Cos(4*y)
			grid[i][j] = z
			min = math.Min(min, z)
			max = math.Max(max, z)
		}
	}

	// Normalize to [0,1], scale, and sit the terrain on a 2mm slab.
	for i := range grid {
		for j, z := range grid[i] {
			grid[i][j] = (z-min)/(max-min)*d.VerticalScale + 2.0
		}
	}
	return grid, 1.0, 0, nil
}
