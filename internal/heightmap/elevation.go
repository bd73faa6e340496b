package heightmap

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/formlift/formlift/internal/mesh"
)

// ElevationPoint is one surveyed sample: a geographic position and its
// elevation in meters.
type ElevationPoint struct {
	Lat, Lon, Elev float64
}

// ParseElevationCSV reads latitude/longitude/elevation rows. Header names
// are matched loosely: lat/latitude, lon/long/longitude, and
// elev/elevation/height are all accepted.
func ParseElevationCSV(r io.Reader) ([]ElevationPoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	latCol, lonCol, elevCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "latitude", "lat":
			latCol = i
		case "longitude", "lon", "long":
			lonCol = i
		case "elevation", "elev", "height":
			elevCol = i
		}
	}
	if latCol < 0 || lonCol < 0 || elevCol < 0 {
		return nil, fmt.Errorf("csv header must include latitude, longitude, and elevation columns, got %v", header)
	}

	var points []ElevationPoint
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		lat, err := strconv.ParseFloat(record[latCol], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad latitude %q", len(points)+1, record[latCol])
		}
		lon, err := strconv.ParseFloat(record[lonCol], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad longitude %q", len(points)+1, record[lonCol])
		}
		elev, err := strconv.ParseFloat(record[elevCol], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad elevation %q", len(points)+1, record[elevCol])
		}
		points = append(points, ElevationPoint{Lat: lat, Lon: lon, Elev: elev})
	}
	return points, nil
}

// Elevation resamples scattered survey points onto a uniform lattice
// using inverse-distance weighting. Lattice cells with no sample support
// are pre-filled with the minimum observed elevation so the base of the
// model stays closed.
type Elevation struct {
	Points        []ElevationPoint
	GridSize      int     // lattice resolution per axis (default 100)
	VerticalScale float64 // multiplier on elevations (default 1)
	PixelSize     float64 // mm per lattice cell (default 1)
}

func (e Elevation) Produce() (mesh.HeightGrid, float64, float64, error) {
	if len(e.Points) < 3 {
		return nil, 0, 0, fmt.Errorf("need at least 3 elevation points, got %d", len(e.Points))
	}
	if e.GridSize == 0 {
		e.GridSize = 100
	}
	if e.VerticalScale == 0 {
		e.VerticalScale = 1
	}
	if e.PixelSize == 0 {
		e.PixelSize = 1
	}

	lats := make([]float64, len(e.Points))
	lons := make([]float64, len(e.Points))
	elevs := make([]float64, len(e.Points))
	for i, p := range e.Points {
		lats[i], lons[i], elevs[i] = p.Lat, p.Lon, p.Elev
	}

	latMin, latMax := floats.Min(lats), floats.Max(lats)
	lonMin, lonMax := floats.Min(lons), floats.Max(lons)
	elevMin := floats.Min(elevs)
	if latMax == latMin || lonMax == lonMin {
		return nil, 0, 0, fmt.Errorf("elevation points have no geographic extent")
	}

	n := e.GridSize
	dLat := (latMax - latMin) / float64(n-1)
	dLon := (lonMax - lonMin) / float64(n-1)

	// Samples beyond this distance do not influence a cell; cells with
	// no sample in range fall back to the minimum observed elevation.
	cutoff := 4 * math.Max(dLat, dLon)
	cutoffSq := cutoff * cutoff

	grid := make(mesh.HeightGrid, n)
	for i := 0; i < n; i++ {
		grid[i] = make([]float64, n)
		lat := latMin + float64(i)*dLat
		for j := 0; j < n; j++ {
			lon := lonMin + float64(j)*dLon
			grid[i][j] = e.interpolate(lat, lon, cutoffSq, elevMin) * e.VerticalScale
		}
	}
	sanitize(grid, elevMin*e.VerticalScale)
	return grid, e.PixelSize, 0, nil
}

// interpolate computes inverse-distance-squared weighted elevation at
// (lat, lon). A sample closer than ~1e-12 wins outright.
func (e Elevation) interpolate(lat, lon, cutoffSq, fallback float64) float64 {
	var weightSum, valueSum float64
	for _, p := range e.Points {
		dLat := p.Lat - lat
		dLon := p.Lon - lon
		distSq := dLat*dLat + dLon*dLon
		if distSq < 1e-24 {
			return p.Elev
		}
		if distSq > cutoffSq {
			continue
		}
		w := 1 / distSq
		weightSum += w
		valueSum += w * p.Elev
	}
	if weightSum == 0 {
		return fallback
	}
	return valueSum / weightSum
}
