package heightmap

import (
	"fmt"
	"image"

	"github.com/formlift/formlift/internal/mesh"
)

// ThresholdSplit separates a grayscale image into two height grids for
// dual-extruder printing: one carrying the bright regions (value >= T,
// zero elsewhere) and one carrying the inverted dark regions (255-value
// where value < T, zero elsewhere). Each grid is extruded and serialized
// independently, producing two standalone watertight solids rather than
// one tagged mesh.
type ThresholdSplit struct {
	Image         image.Image
	Threshold     uint8   // split point on the 0-255 scale (default 128)
	MaxHeight     float64 // mm at full intensity (default 10)
	BaseThickness float64 // mm (default 2)
	PixelSize     float64 // mm per cell (default 1)
	MaxResolution int     // longest edge after downsampling (default 100)
}

// SplitGrids is the pair of material grids produced by a threshold
// split. A nil grid means that material selects no pixels and no solid
// should be emitted for it.
type SplitGrids struct {
	Bright, Dark mesh.HeightGrid
	CellSize     float64
	Base         float64
}

func (s ThresholdSplit) Grids() (*SplitGrids, error) {
	if s.Image == nil {
		return nil, fmt.Errorf("no image provided")
	}
	if s.Threshold == 0 {
		s.Threshold = 128
	}
	if s.MaxHeight == 0 {
		s.MaxHeight = 10
	}
	if s.BaseThickness == 0 {
		s.BaseThickness = 2
	}
	if s.PixelSize == 0 {
		s.PixelSize = 1
	}
	if s.MaxResolution == 0 {
		s.MaxResolution = 100
	}

	gray := thumbnailGray(s.Image, s.MaxResolution)
	bounds := gray.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	bright := make(mesh.HeightGrid, rows)
	dark := make(mesh.HeightGrid, rows)
	var brightMax, darkMax float64
	for r := 0; r < rows; r++ {
		bright[r] = make([]float64, cols)
		dark[r] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			v := float64(gray.GrayAt(bounds.Min.X+c, bounds.Min.Y+r).Y)
			if v >= float64(s.Threshold) {
				bright[r][c] = v
				if v > brightMax {
					brightMax = v
				}
			} else {
				dark[r][c] = 255 - v
				if dark[r][c] > darkMax {
					darkMax = dark[r][c]
				}
			}
		}
	}

	out := &SplitGrids{CellSize: s.PixelSize, Base: 0}
	if brightMax > 0 {
		out.Bright = scaleIntensity(bright, s.MaxHeight, s.BaseThickness)
	}
	if darkMax > 0 {
		out.Dark = scaleIntensity(dark, s.MaxHeight, s.BaseThickness)
	}
	if out.Bright == nil && out.Dark == nil {
		return nil, fmt.Errorf("image is empty after threshold split")
	}
	return out, nil
}

// scaleIntensity maps a 0-255 intensity grid onto heights in mm.
func scaleIntensity(g mesh.HeightGrid, maxHeight, base float64) mesh.HeightGrid {
	out := make(mesh.HeightGrid, len(g))
	for r, row := range g {
		out[r] = make([]float64, len(row))
		for c, v := range row {
			out[r][c] = v/255.0*maxHeight + base
		}
	}
	return out
}
