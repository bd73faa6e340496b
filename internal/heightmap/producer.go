// Package heightmap produces height grids from images, text renderings,
// QR payloads, elevation samples, and synthetic terrain.
//
// Each producer hands a finished grid to the mesh package along with the
// physical cell size and base elevation used to extrude it. Producers own
// all normalisation and are responsible for replacing non-finite samples
// before handoff.
package heightmap

import (
	"math"

	"github.com/formlift/formlift/internal/mesh"
)

// Producer converts some source payload into a height grid. The returned
// grid is immutable once produced and consumed exactly once.
type Producer interface {
	Produce() (grid mesh.HeightGrid, cellSize, baseElevation float64, err error)
}

// sanitize replaces NaN and infinite samples with fill, in place.
func sanitize(grid mesh.HeightGrid, fill float64) {
	for _, row := range grid {
		for i, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[i] = fill
			}
		}
	}
}
