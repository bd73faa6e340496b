package heightmap

import (
	"image"
	"testing"
)

func TestThresholdSplitGrids(t *testing.T) {
	img := grayImage([][]uint8{
		{0, 200},
		{200, 50},
	})

	grids, err := ThresholdSplit{Image: img}.Grids()
	if err != nil {
		t.Fatalf("Grids failed: %v", err)
	}
	if grids.Bright == nil || grids.Dark == nil {
		t.Fatal("expected both material grids")
	}
	if grids.CellSize != 1 {
		t.Errorf("cell size = %v, want 1", grids.CellSize)
	}

	// Bright material keeps values >= threshold, zeroed elsewhere, then
	// scales to height: 200/255*10+2 and base-only 2 for excluded cells.
	wantBright := 200.0/255.0*10 + 2
	if grids.Bright[0][1] != wantBright {
		t.Errorf("bright[0][1] = %v, want %v", grids.Bright[0][1], wantBright)
	}
	if grids.Bright[0][0] != 2 {
		t.Errorf("bright[0][0] = %v, want base 2", grids.Bright[0][0])
	}

	// Dark material carries 255-value for values below threshold.
	wantDark := 255.0/255.0*10 + 2
	if grids.Dark[0][0] != wantDark {
		t.Errorf("dark[0][0] = %v, want %v", grids.Dark[0][0], wantDark)
	}
	wantDark50 := (255.0-50.0)/255.0*10 + 2
	if grids.Dark[1][1] != wantDark50 {
		t.Errorf("dark[1][1] = %v, want %v", grids.Dark[1][1], wantDark50)
	}
	if grids.Dark[0][1] != 2 {
		t.Errorf("dark[0][1] = %v, want base 2", grids.Dark[0][1])
	}
}

// A uniformly bright image selects nothing below the threshold; only the
// bright solid is emitted.
func TestThresholdSplitBrightOnly(t *testing.T) {
	img := grayImage([][]uint8{
		{255, 255},
		{255, 255},
	})

	grids, err := ThresholdSplit{Image: img}.Grids()
	if err != nil {
		t.Fatalf("Grids failed: %v", err)
	}
	if grids.Bright == nil {
		t.Error("expected bright grid")
	}
	if grids.Dark != nil {
		t.Error("unexpected dark grid for all-bright image")
	}
}

func TestThresholdSplitDarkOnly(t *testing.T) {
	img := grayImage([][]uint8{
		{0, 10},
		{20, 30},
	})

	grids, err := ThresholdSplit{Image: img}.Grids()
	if err != nil {
		t.Fatalf("Grids failed: %v", err)
	}
	if grids.Bright != nil {
		t.Error("unexpected bright grid for all-dark image")
	}
	if grids.Dark == nil {
		t.Error("expected dark grid")
	}
}

func TestThresholdSplitCustomThreshold(t *testing.T) {
	img := grayImage([][]uint8{
		{100, 150},
		{150, 100},
	})

	grids, err := ThresholdSplit{Image: img, Threshold: 120}.Grids()
	if err != nil {
		t.Fatalf("Grids failed: %v", err)
	}
	if grids.Bright == nil || grids.Dark == nil {
		t.Fatal("expected both material grids")
	}
	if grids.Bright[0][0] != 2 {
		t.Errorf("value 100 included in bright material at threshold 120")
	}
}

func TestThresholdSplitNilImage(t *testing.T) {
	if _, err := (ThresholdSplit{}).Grids(); err == nil {
		t.Fatal("expected error for nil image")
	}
}

func TestThresholdSplitDownsamples(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 300, 300))
	grids, err := ThresholdSplit{Image: img}.Grids()
	if err != nil {
		t.Fatalf("Grids failed: %v", err)
	}
	rows, cols := grids.Dark.Dims()
	if rows != 100 || cols != 100 {
		t.Errorf("grid dims = %dx%d, want 100x100", rows, cols)
	}
}
