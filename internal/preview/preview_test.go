package preview

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/formlift/formlift/internal/mesh"
)

func TestSaveHeatmapPNG(t *testing.T) {
	grid := mesh.HeightGrid{
		{2, 4, 6},
		{6, 4, 2},
		{2, 6, 2},
	}
	path := filepath.Join(t.TempDir(), "grid.png")

	if err := SaveHeatmapPNG(path, "test grid", grid, 1); err != nil {
		t.Fatalf("SaveHeatmapPNG failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("empty output file")
	}
}

func TestSaveHeatmapPNGEmptyGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.png")
	if err := SaveHeatmapPNG(path, "", nil, 1); err == nil {
		t.Fatal("expected error for empty grid")
	}
}

func TestTerrainHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/preview/terrain?size=30", nil)
	rec := httptest.NewRecorder()

	TerrainHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content-type = %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "echarts") {
		t.Error("response does not embed a chart")
	}
}

func TestTerrainHandlerBadSize(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/preview/terrain?size=1", nil)
	rec := httptest.NewRecorder()

	TerrainHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTerrainHandlerMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/preview/terrain", nil)
	rec := httptest.NewRecorder()

	TerrainHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
