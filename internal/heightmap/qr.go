package heightmap

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/formlift/formlift/internal/mesh"
)

// QR renders a payload as a raised QR code. In the default mode the
// light modules are raised; Invert flips the mapping (height =
// scale*(1-normalized)) so the dark modules stand proud, the reading a
// rubber stamp needs.
type QR struct {
	Data          string
	RaisedHeight  float64 // mm (default 2)
	BaseThickness float64 // mm (default 2)
	BoxSize       int     // raster cells per QR module (default 10)
	Invert        bool    // stamp mode
}

func (q QR) Produce() (mesh.HeightGrid, float64, float64, error) {
	if q.Data == "" {
		return nil, 0, 0, fmt.Errorf("no data provided")
	}
	if q.RaisedHeight == 0 {
		q.RaisedHeight = 2
	}
	if q.BaseThickness == 0 {
		q.BaseThickness = 2
	}
	if q.BoxSize == 0 {
		q.BoxSize = 10
	}

	code, err := qrcode.New(q.Data, qrcode.Medium)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("encode qr: %w", err)
	}

	// Bitmap includes the quiet zone; true marks a dark module.
	bitmap := code.Bitmap()
	modules := len(bitmap)
	size := modules * q.BoxSize

	grid := make(mesh.HeightGrid, size)
	for r := 0; r < size; r++ {
		grid[r] = make([]float64, size)
		for c := 0; c < size; c++ {
			v := 1.0 // light
			if bitmap[r/q.BoxSize][c/q.BoxSize] {
				v = 0 // dark
			}
			if q.Invert {
				v = 1 - v
			}
			grid[r][c] = v*q.RaisedHeight + q.BaseThickness
		}
	}
	return grid, 0.5, 0, nil
}
