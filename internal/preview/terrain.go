package preview

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/formlift/formlift/internal/heightmap"
	"github.com/formlift/formlift/internal/httputil"
)

// TerrainHandler renders an HTML scatter preview of the demo terrain so the
// surface can be eyeballed in a browser before committing to a print.
// Query params:
//   - size (optional; default 100) samples per axis
//   - vertical_scale (optional; default 10) mm at the tallest peak
//   - max_points (optional; default 8000) to reduce payload size
func TerrainHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	size := 100
	if v := r.URL.Query().Get("size"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 2 || parsed > 500 {
			httputil.BadRequest(w, "invalid 'size' parameter")
			return
		}
		size = parsed
	}

	verticalScale := 0.0
	if v := r.URL.Query().Get("vertical_scale"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			httputil.BadRequest(w, "invalid 'vertical_scale' parameter")
			return
		}
		verticalScale = parsed
	}

	maxPoints := 8000
	if mp := r.URL.Query().Get("max_points"); mp != "" {
		if v, err := strconv.Atoi(mp); err == nil && v > 100 && v <= 50000 {
			maxPoints = v
		}
	}

	grid, cell, _, err := heightmap.DemoTerrain{Size: size, VerticalScale: verticalScale}.Produce()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to generate terrain: %v", err))
		return
	}

	rows, cols := grid.Dims()
	total := rows * cols

	// Downsample by stride to stay within maxPoints
	stride := 1
	if total > maxPoints {
		for ; (rows/stride)*(cols/stride) > maxPoints; stride++ {
		}
	}

	lo, hi := grid.MinMax()
	data := make([]opts.ScatterData, 0, total/(stride*stride)+1)
	for row := 0; row < rows; row += stride {
		for col := 0; col < cols; col += stride {
			x := float64(col) * cell
			y := float64(row) * cell
			data = append(data, opts.ScatterData{Value: []interface{}{x, y, grid[row][col]}})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Terrain Preview", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Demo Terrain Heightmap", Subtitle: fmt.Sprintf("size=%d points=%d stride=%d", size, len(data), stride)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (mm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (mm)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}},
		}),
	)

	scatter.AddSeries("height", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
