package heightmap

import (
	"fmt"
	"image"
	"io"

	// Register the decoders for the upload formats we accept.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/formlift/formlift/internal/mesh"
)

// Brightness maps image luminance to height: bright pixels become tall
// cells. This is the standard photo-relief conversion.
type Brightness struct {
	Image         image.Image
	MaxHeight     float64 // mm added at full brightness (default 10)
	BaseThickness float64 // mm under the darkest pixel (default 2)
	PixelSize     float64 // mm per pixel (default 1)
	MaxResolution int     // longest edge after downsampling (default 100)
}

// DecodeImage decodes a JPEG, PNG, or GIF payload.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (b Brightness) Produce() (mesh.HeightGrid, float64, float64, error) {
	if b.Image == nil {
		return nil, 0, 0, fmt.Errorf("no image provided")
	}
	if b.MaxHeight == 0 {
		b.MaxHeight = 10
	}
	if b.BaseThickness == 0 {
		b.BaseThickness = 2
	}
	if b.PixelSize == 0 {
		b.PixelSize = 1
	}
	if b.MaxResolution == 0 {
		b.MaxResolution = 100
	}

	gray := thumbnailGray(b.Image, b.MaxResolution)
	bounds := gray.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	grid := make(mesh.HeightGrid, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			v := float64(gray.GrayAt(bounds.Min.X+c, bounds.Min.Y+r).Y) / 255.0
			grid[r][c] = v*b.MaxHeight + b.BaseThickness
		}
	}
	sanitize(grid, b.BaseThickness)
	return grid, b.PixelSize, 0, nil
}

// thumbnailGray converts src to grayscale, downsampling so neither edge
// exceeds maxRes while preserving aspect ratio. Images already within the
// limit keep their native resolution.
func thumbnailGray(src image.Image, maxRes int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxRes || h > maxRes {
		if w >= h {
			h = h * maxRes / w
			w = maxRes
		} else {
			w = w * maxRes / h
			h = maxRes
		}
		if w < 2 {
			w = 2
		}
		if h < 2 {
			h = 2
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
