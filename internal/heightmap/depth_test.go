package heightmap

import (
	"image"
	"image/color"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDepthProduce(t *testing.T) {
	// Left half dark, right half bright.
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 32; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	grid, cell, base, err := Depth{Image: img}.Produce()
	if err != nil {
		t.Fatalf("Produce failed: %v", err)
	}
	if cell != 1 || base != 0 {
		t.Errorf("cell=%v base=%v, want 1, 0", cell, base)
	}
	rows, cols := grid.Dims()
	if rows != 64 || cols != 64 {
		t.Fatalf("grid dims = %dx%d, want 64x64", rows, cols)
	}
	allFinite(t, grid)

	// Heights stay within base..base+maxDepth.
	min, max := grid.MinMax()
	if min < 2-1e-9 || max > 17+1e-9 {
		t.Errorf("height range = (%v, %v), want within [2, 17]", min, max)
	}

	// Bright flat regions read as far (taller) than dark flat regions.
	if grid[32][8] >= grid[32][56] {
		t.Errorf("dark region %v not below bright region %v", grid[32][8], grid[32][56])
	}
}

func TestDepthDownsamples(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1024, 512))
	grid, _, _, err := Depth{Image: img}.Produce()
	if err != nil {
		t.Fatalf("Produce failed: %v", err)
	}
	rows, cols := grid.Dims()
	if cols != 256 || rows != 128 {
		t.Errorf("grid dims = %dx%d, want 128x256", rows, cols)
	}
}

func TestDepthNilImage(t *testing.T) {
	if _, _, _, err := (Depth{}).Produce(); err == nil {
		t.Fatal("expected error for nil image")
	}
}

func TestConvolve3x3DetectsVerticalEdge(t *testing.T) {
	// Step from 0 to 1 at column 2.
	src := mat.NewDense(5, 5, nil)
	for r := 0; r < 5; r++ {
		for c := 2; c < 5; c++ {
			src.Set(r, c, 1)
		}
	}

	gx := convolve3x3(src, sobelX)
	if gx.At(2, 2) <= 0 {
		t.Errorf("gradient at edge = %v, want positive", gx.At(2, 2))
	}
	if v := gx.At(2, 4); v != 0 {
		t.Errorf("gradient in flat region = %v, want 0", v)
	}
}

func TestGaussianBlurPreservesConstant(t *testing.T) {
	src := mat.NewDense(8, 8, nil)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			src.Set(r, c, 3.5)
		}
	}

	dst := gaussianBlur(src, 2.0)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			if math.Abs(dst.At(r, c)-3.5) > 1e-9 {
				t.Fatalf("blurred constant at (%d,%d) = %v, want 3.5", r, c, dst.At(r, c))
			}
		}
	}
}

func TestGaussianBlurSmoothsSpike(t *testing.T) {
	src := mat.NewDense(15, 15, nil)
	src.Set(7, 7, 100)

	dst := gaussianBlur(src, 2.0)
	if dst.At(7, 7) >= 100 {
		t.Errorf("spike not attenuated: %v", dst.At(7, 7))
	}
	if dst.At(7, 9) <= 0 {
		t.Errorf("energy not spread to neighbors: %v", dst.At(7, 9))
	}
}
