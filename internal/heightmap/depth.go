package heightmap

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/formlift/formlift/internal/mesh"
)

// Depth estimates a pseudo-depth field from a single photo: brightness
// carries most of the signal (bright, low-detail regions read as far),
// damped where edge density is high (busy regions read as near). The
// field is smoothed before extrusion so the print surface stays gentle.
// This is a heuristic stand-in for a learned monocular depth model.
type Depth struct {
	Image         image.Image
	MaxDepth      float64 // mm at the deepest point (default 15)
	BaseThickness float64 // mm (default 2)
	PixelSize     float64 // mm per cell (default 1)
}

// depthResolution caps the working grid; depth estimation is O(pixels)
// per filter pass.
const depthResolution = 256

func (d Depth) Produce() (mesh.HeightGrid, float64, float64, error) {
	if d.Image == nil {
		return nil, 0, 0, fmt.Errorf("no image provided")
	}
	if d.MaxDepth == 0 {
		d.MaxDepth = 15
	}
	if d.BaseThickness == 0 {
		d.BaseThickness = 2
	}
	if d.PixelSize == 0 {
		d.PixelSize = 1
	}

	gray := thumbnailGray(d.Image, depthResolution)
	bounds := gray.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	brightness := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			brightness.Set(r, c, float64(gray.GrayAt(bounds.Min.X+c, bounds.Min.Y+r).Y)/255.0)
		}
	}

	depth := estimateDepth(brightness)
	return depthGridFromMatrix(depth, d.MaxDepth, d.BaseThickness), d.PixelSize, 0, nil
}

var sobelX = [3][3]float64{
	{-1, 0, 1},
	{-2, 0, 2},
	{-1, 0, 1},
}

var sobelY = [3][3]float64{
	{-1, -2, -1},
	{0, 0, 0},
	{1, 2, 1},
}

// estimateDepth runs the heuristic over a normalized brightness matrix
// and returns values in [0,1].
func estimateDepth(brightness *mat.Dense) *mat.Dense {
	rows, cols := brightness.Dims()

	gx := convolve3x3(brightness, sobelX)
	gy := convolve3x3(brightness, sobelY)

	edges := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			edges.Set(r, c, math.Hypot(gx.At(r, c), gy.At(r, c)))
		}
	}

	// Rescale edge magnitudes to [0,1]; the epsilon keeps a featureless
	// image from dividing by zero.
	raw := edges.RawMatrix().Data
	lo, hi := floats.Min(raw), floats.Max(raw)
	scale := 1 / (hi - lo + 1e-6)

	depth := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			e := (edges.At(r, c) - lo) * scale
			depth.Set(r, c, 0.7*brightness.At(r, c)+0.3*(1-e))
		}
	}

	return gaussianBlur(depth, 2.0)
}

// convolve3x3 applies a 3x3 kernel with clamped borders.
func convolve3x3(src *mat.Dense, k [3][3]float64) *mat.Dense {
	rows, cols := src.Dims()
	dst := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var sum float64
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					sum += k[dr+1][dc+1] * src.At(clamp(r+dr, rows), clamp(c+dc, cols))
				}
			}
			dst.Set(r, c, sum)
		}
	}
	return dst
}

// gaussianBlur applies a separable Gaussian with the given sigma,
// clamping at the borders.
func gaussianBlur(src *mat.Dense, sigma float64) *mat.Dense {
	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-x * x / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	rows, cols := src.Dims()
	tmp := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var sum float64
			for i, w := range kernel {
				sum += w * src.At(r, clamp(c+i-radius, cols))
			}
			tmp.Set(r, c, sum)
		}
	}

	dst := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var sum float64
			for i, w := range kernel {
				sum += w * tmp.At(clamp(r+i-radius, rows), c)
			}
			dst.Set(r, c, sum)
		}
	}
	return dst
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// depthGridFromMatrix scales a [0,1] depth field into a height grid.
func depthGridFromMatrix(depth *mat.Dense, maxDepth, base float64) mesh.HeightGrid {
	rows, cols := depth.Dims()
	grid := make(mesh.HeightGrid, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]float64, cols)
		for c := 0; c < cols; c++ {
			grid[r][c] = depth.At(r, c)*maxDepth + base
		}
	}
	sanitize(grid, base)
	return grid
}
