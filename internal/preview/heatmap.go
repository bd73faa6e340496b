// Package preview renders height grids for inspection before printing.
package preview

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/formlift/formlift/internal/mesh"
)

// gridXYZ adapts a HeightGrid to the plotter heat map interface. Row 0
// is drawn at the bottom of the plot.
type gridXYZ struct {
	grid mesh.HeightGrid
	cell float64
}

func (g gridXYZ) Dims() (c, r int) {
	rows, cols := g.grid.Dims()
	return cols, rows
}

func (g gridXYZ) Z(c, r int) float64 { return g.grid[r][c] }
func (g gridXYZ) X(c int) float64    { return float64(c) * g.cell }
func (g gridXYZ) Y(r int) float64    { return float64(r) * g.cell }

// SaveHeatmapPNG writes a heat map of the grid to path. The output format
// follows the file extension; .png is the usual choice.
func SaveHeatmapPNG(path, title string, grid mesh.HeightGrid, cellSize float64) error {
	if len(grid) == 0 {
		return fmt.Errorf("empty grid")
	}
	if cellSize <= 0 {
		cellSize = 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"

	h := plotter.NewHeatMap(gridXYZ{grid: grid, cell: cellSize}, palette.Heat(12, 1))
	p.Add(h)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save heatmap: %w", err)
	}
	return nil
}
