// Package convert runs grid producers through solid generation and binary
// STL export, and records finished jobs in the history store.
package convert

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/formlift/formlift/internal/heightmap"
	"github.com/formlift/formlift/internal/mesh"
	"github.com/formlift/formlift/internal/store"
	"github.com/formlift/formlift/internal/stl"
	"github.com/formlift/formlift/internal/timeutil"
)

// Sentinel errors classifying conversion failures. Handlers map these to
// response codes; the CLI maps them to exit messages.
var (
	// ErrInput marks failures in the submitted data: undecodable images,
	// malformed CSV, empty text.
	ErrInput = errors.New("input rejected")
	// ErrGeometry marks grids that cannot form a solid.
	ErrGeometry = errors.New("solid generation failed")
	// ErrWrite marks output filesystem failures. The partial file is
	// removed; the job is not recorded.
	ErrWrite = errors.New("output write failed")
)

// Result describes one finished conversion.
type Result struct {
	JobID    string        `json:"job_id"`
	Mode     string        `json:"mode"`
	Files    []string      `json:"files"`
	Vertices int           `json:"vertices"`
	Faces    int           `json:"faces"`
	WidthMM  float64       `json:"width_mm"`
	DepthMM  float64       `json:"depth_mm"`
	HeightMM float64       `json:"height_mm"`
	Duration time.Duration `json:"-"`
}

// Converter writes STL output under OutputDir. Store is optional; when set,
// finished jobs are recorded there. Recording failures are logged, never
// propagated.
type Converter struct {
	OutputDir string
	Store     *store.DB

	// Clock times conversions; nil means the wall clock.
	Clock timeutil.Clock
}

func (c *Converter) clock() timeutil.Clock {
	if c.Clock == nil {
		return timeutil.RealClock{}
	}
	return c.Clock
}

// Heightmap extrudes an image's brightness into a solid.
func (c *Converter) Heightmap(source string, p heightmap.Brightness) (*Result, error) {
	return c.run("heightmap", source, p)
}

// Braille extrudes tactile braille dots for the given producer's text.
func (c *Converter) Braille(p heightmap.Braille) (*Result, error) {
	return c.run("braille", p.Text, p)
}

// QR extrudes a scannable QR code plate.
func (c *Converter) QR(p heightmap.QR) (*Result, error) {
	return c.run("qr", p.Data, p)
}

// Topo interpolates surveyed elevation samples into a terrain solid.
func (c *Converter) Topo(source string, p heightmap.Elevation) (*Result, error) {
	return c.run("topo", source, p)
}

// TopoDemo generates the synthetic demonstration terrain.
func (c *Converter) TopoDemo(p heightmap.DemoTerrain) (*Result, error) {
	return c.run("topo", "demo", p)
}

// Depth extrudes a single-image pseudo-depth estimate.
func (c *Converter) Depth(source string, p heightmap.Depth) (*Result, error) {
	return c.run("depth", source, p)
}

// MultiMaterial splits an image at a brightness threshold and writes one
// standalone solid per material. Materials with no lit cells are skipped;
// at least one file is always produced for a decodable image.
func (c *Converter) MultiMaterial(source string, p heightmap.ThresholdSplit) (*Result, error) {
	start := c.clock().Now()

	grids, err := p.Grids()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}

	jobID := uuid.NewString()
	res := &Result{JobID: jobID, Mode: "multi"}

	for i, grid := range []mesh.HeightGrid{grids.Bright, grids.Dark} {
		if grid == nil {
			continue
		}
		m, err := mesh.BuildSolid(grid, grids.CellSize, grids.Base)
		if err != nil {
			c.removeAll(res.Files)
			return nil, fmt.Errorf("%w: %v", ErrGeometry, err)
		}
		name := fmt.Sprintf("multi_%s_material_%d.stl", jobID, i+1)
		if err := stl.WriteFile(m, filepath.Join(c.OutputDir, name)); err != nil {
			c.removeAll(res.Files)
			return nil, fmt.Errorf("%w: %v", ErrWrite, err)
		}
		res.Files = append(res.Files, name)
		res.Vertices += len(m.Vertices)
		res.Faces += len(m.Faces)

		// Materials share a footprint; report the tallest solid.
		width, depth, height := m.Bounds()
		res.WidthMM = math.Max(res.WidthMM, width)
		res.DepthMM = math.Max(res.DepthMM, depth)
		res.HeightMM = math.Max(res.HeightMM, height)
	}
	if len(res.Files) == 0 {
		return nil, fmt.Errorf("%w: image produced no material regions", ErrInput)
	}
	res.Duration = c.clock().Since(start)

	c.record(res, source)
	return res, nil
}

func (c *Converter) run(mode, source string, p heightmap.Producer) (*Result, error) {
	start := c.clock().Now()

	grid, cellSize, baseElevation, err := p.Produce()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}

	m, err := mesh.BuildSolid(grid, cellSize, baseElevation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeometry, err)
	}

	jobID := uuid.NewString()
	name := fmt.Sprintf("%s_%s.stl", mode, jobID)
	path := filepath.Join(c.OutputDir, name)
	if err := stl.WriteFile(m, path); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	width, depth, height := m.Bounds()
	res := &Result{
		JobID:    jobID,
		Mode:     mode,
		Files:    []string{name},
		Vertices: len(m.Vertices),
		Faces:    len(m.Faces),
		WidthMM:  width,
		DepthMM:  depth,
		HeightMM: height,
		Duration: c.clock().Since(start),
	}

	c.record(res, source)
	return res, nil
}

// OutputPath resolves a result file name under the converter's output dir.
func (c *Converter) OutputPath(name string) string {
	return filepath.Join(c.OutputDir, name)
}

func (c *Converter) record(res *Result, source string) {
	if c.Store == nil {
		return
	}
	err := c.Store.RecordConversion(store.Conversion{
		JobID:      res.JobID,
		Mode:       res.Mode,
		Source:     source,
		Files:      res.Files,
		Vertices:   int64(res.Vertices),
		Faces:      int64(res.Faces),
		WidthMM:    res.WidthMM,
		DepthMM:    res.DepthMM,
		HeightMM:   res.HeightMM,
		DurationMS: res.Duration.Milliseconds(),
	})
	if err != nil {
		log.Printf("failed to record conversion %s: %v", res.JobID, err)
	}
}

func (c *Converter) removeAll(names []string) {
	for _, name := range names {
		os.Remove(filepath.Join(c.OutputDir, name))
	}
}
