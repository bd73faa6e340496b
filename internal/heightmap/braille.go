package heightmap

import (
	"fmt"
	"strings"

	"github.com/formlift/formlift/internal/mesh"
)

// braillePatterns maps each supported character to its 6-dot cell,
// indexed left-to-right then top-to-bottom (dot i sits at column i%2,
// row i/2). The table is initialized once and read-only, so it is safe
// to share across concurrent conversions.
var braillePatterns = map[rune][6]uint8{
	'a': {1, 0, 0, 0, 0, 0}, 'b': {1, 1, 0, 0, 0, 0}, 'c': {1, 0, 0, 1, 0, 0},
	'd': {1, 0, 0, 1, 1, 0}, 'e': {1, 0, 0, 0, 1, 0}, 'f': {1, 1, 0, 1, 0, 0},
	'g': {1, 1, 0, 1, 1, 0}, 'h': {1, 1, 0, 0, 1, 0}, 'i': {0, 1, 0, 1, 0, 0},
	'j': {0, 1, 0, 1, 1, 0}, 'k': {1, 0, 1, 0, 0, 0}, 'l': {1, 1, 1, 0, 0, 0},
	'm': {1, 0, 1, 1, 0, 0}, 'n': {1, 0, 1, 1, 1, 0}, 'o': {1, 0, 1, 0, 1, 0},
	'p': {1, 1, 1, 1, 0, 0}, 'q': {1, 1, 1, 1, 1, 0}, 'r': {1, 1, 1, 0, 1, 0},
	's': {0, 1, 1, 1, 0, 0}, 't': {0, 1, 1, 1, 1, 0}, 'u': {1, 0, 1, 0, 0, 1},
	'v': {1, 1, 1, 0, 0, 1}, 'w': {0, 1, 0, 1, 1, 1}, 'x': {1, 0, 1, 1, 0, 1},
	'y': {1, 0, 1, 1, 1, 1}, 'z': {1, 0, 1, 0, 1, 1}, ' ': {0, 0, 0, 0, 0, 0},
}

// Braille renders text as a tactile 6-dot pattern. Characters outside
// the supported set (a-z and space, case-insensitive) are skipped.
type Braille struct {
	Text          string
	DotHeight     float64 // mm a raised dot stands above the base (default 2)
	BaseThickness float64 // mm (default 2)
	DotSize       int     // dot diameter in raster cells (default 10)
	Spacing       int     // gap between dots in raster cells (default 15)
}

func (br Braille) Produce() (mesh.HeightGrid, float64, float64, error) {
	if strings.TrimSpace(br.Text) == "" {
		return nil, 0, 0, fmt.Errorf("no text provided")
	}
	if br.DotHeight == 0 {
		br.DotHeight = 2
	}
	if br.BaseThickness == 0 {
		br.BaseThickness = 2
	}
	if br.DotSize == 0 {
		br.DotSize = 10
	}
	if br.Spacing == 0 {
		br.Spacing = 15
	}

	raster := br.rasterize()
	rows := len(raster)
	grid := make(mesh.HeightGrid, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]float64, len(raster[r]))
		for c, v := range raster[r] {
			grid[r][c] = v*br.DotHeight + br.BaseThickness
		}
	}
	// Tactile output is half-millimeter cells so a standard dot reads
	// around 5mm wide.
	return grid, 0.5, 0, nil
}

// rasterize draws the dot pattern onto a 0/1 raster. Each character
// occupies a 2x3 dot cell; a set dot is a filled circle of DotSize
// raster cells.
func (br Braille) rasterize() [][]float64 {
	text := strings.ToLower(br.Text)

	charWidth := 2*br.DotSize + br.Spacing
	charHeight := 3*br.DotSize + 2*br.Spacing
	width := len(text)*(charWidth+br.Spacing) + br.Spacing
	height := charHeight + 2*br.Spacing

	raster := make([][]float64, height)
	for r := range raster {
		raster[r] = make([]float64, width)
	}

	for i, ch := range text {
		pattern, ok := braillePatterns[ch]
		if !ok {
			continue
		}
		xOff := i*(charWidth+br.Spacing) + br.Spacing
		yOff := br.Spacing

		for dot, active := range pattern {
			if active == 0 {
				continue
			}
			col := dot % 2
			row := dot / 2
			x := xOff + col*(br.DotSize+br.Spacing)
			y := yOff + row*(br.DotSize+br.Spacing)
			fillCircle(raster, x, y, br.DotSize)
		}
	}
	return raster
}

// fillCircle marks the circle inscribed in the dot-size square at (x, y).
func fillCircle(raster [][]float64, x, y, size int) {
	cx := float64(x) + float64(size)/2
	cy := float64(y) + float64(size)/2
	radius := float64(size) / 2

	for py := y; py < y+size && py < len(raster); py++ {
		if py < 0 {
			continue
		}
		for px := x; px < x+size && px < len(raster[py]); px++ {
			if px < 0 {
				continue
			}
			dx := float64(px) + 0.5 - cx
			dy := float64(py) + 0.5 - cy
			if dx*dx+dy*dy <= radius*radius {
				raster[py][px] = 1
			}
		}
	}
}
