// Command formlift converts 2D inputs (photos, text, survey data) into
// printable binary STL solids, either from the command line or as an HTTP
// service.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/formlift/formlift/internal/api"
	"github.com/formlift/formlift/internal/convert"
	"github.com/formlift/formlift/internal/heightmap"
	"github.com/formlift/formlift/internal/preview"
	"github.com/formlift/formlift/internal/store"
	"github.com/formlift/formlift/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "heightmap":
		handleHeightmap(args)
	case "braille":
		handleBraille(args)
	case "qr":
		handleQR(args)
	case "topo":
		handleTopo(args)
	case "depth":
		handleDepth(args)
	case "multi":
		handleMulti(args)
	case "serve":
		handleServe(args)
	case "migrate":
		handleMigrate(args)
	case "version":
		fmt.Printf("formlift version %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`formlift - turn 2D inputs into printable STL solids

Usage: formlift <command> [options]

Commands:
  heightmap  Extrude an image's brightness into a relief solid
  braille    Generate a tactile braille text plate
  qr         Generate a scannable QR code plate (--stamp for inverted)
  topo       Interpolate surveyed elevation CSV into terrain (--demo for sample)
  depth      Estimate depth from a single photo and extrude it
  multi      Split an image at a brightness threshold into two material solids
  serve      Run the HTTP conversion API
  migrate    Manage the conversion history schema (up|down|status)
  version    Show formlift version
  help       Show this help message

Common Flags:
  --output <dir>       Output directory for STL files (default: output)
  --db <path>          Record conversions in this SQLite history database
  --plot <path>        Also save a PNG heat map of the generated grid`)
}

// newConverter prepares the output directory and optional history store.
func newConverter(outputDir, dbPath string) (*convert.Converter, func()) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	c := &convert.Converter{OutputDir: outputDir}
	cleanup := func() {}
	if dbPath != "" {
		db, err := store.NewDB(dbPath)
		if err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		c.Store = db
		cleanup = func() { db.Close() }
	}
	return c, cleanup
}

func printResult(c *convert.Converter, res *convert.Result) {
	log.Printf("job %s: %d vertices, %d faces, %.1fx%.1fx%.1f mm in %v",
		res.JobID, res.Vertices, res.Faces,
		res.WidthMM, res.DepthMM, res.HeightMM, res.Duration.Round(time.Millisecond))
	for _, name := range res.Files {
		log.Printf("wrote %s", c.OutputPath(name))
	}
}

func loadImage(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open image: %v", err)
	}
	defer f.Close()

	img, err := heightmap.DecodeImage(f)
	if err != nil {
		log.Fatalf("Failed to decode image: %v", err)
	}
	return img
}

func plotGrid(path, title string, p heightmap.Producer) {
	if path == "" {
		return
	}
	grid, cellSize, _, err := p.Produce()
	if err != nil {
		log.Fatalf("Failed to generate grid for plot: %v", err)
	}
	if err := preview.SaveHeatmapPNG(path, title, grid, cellSize); err != nil {
		log.Fatalf("Failed to save plot: %v", err)
	}
	log.Printf("wrote %s", path)
}

func handleHeightmap(args []string) {
	fs := flag.NewFlagSet("heightmap", flag.ExitOnError)
	imagePath := fs.String("image", "", "Input image path (required)")
	height := fs.Float64("height", 10, "Height in mm at full brightness")
	base := fs.Float64("base", 2, "Base thickness in mm")
	pixelSize := fs.Float64("pixel-size", 1, "Millimetres per pixel")
	maxRes := fs.Int("max-res", 100, "Longest grid edge after downsampling")
	outputDir := fs.String("output", "output", "Output directory")
	dbPath := fs.String("db", "", "History database path")
	plotPath := fs.String("plot", "", "Save a PNG heat map of the grid")
	fs.Parse(args)

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --image flag is required")
		fs.Usage()
		os.Exit(1)
	}

	p := heightmap.Brightness{
		Image:         loadImage(*imagePath),
		MaxHeight:     *height,
		BaseThickness: *base,
		PixelSize:     *pixelSize,
		MaxResolution: *maxRes,
	}
	plotGrid(*plotPath, *imagePath, p)

	c, cleanup := newConverter(*outputDir, *dbPath)
	defer cleanup()

	res, err := c.Heightmap(*imagePath, p)
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
	printResult(c, res)
}

func handleBraille(args []string) {
	fs := flag.NewFlagSet("braille", flag.ExitOnError)
	text := fs.String("text", "", "Text to emboss (required)")
	dotHeight := fs.Float64("dot-height", 2, "Dot height in mm above the base")
	base := fs.Float64("base", 2, "Base thickness in mm")
	outputDir := fs.String("output", "output", "Output directory")
	dbPath := fs.String("db", "", "History database path")
	fs.Parse(args)

	if *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --text flag is required")
		fs.Usage()
		os.Exit(1)
	}

	c, cleanup := newConverter(*outputDir, *dbPath)
	defer cleanup()

	res, err := c.Braille(heightmap.Braille{
		Text:          *text,
		DotHeight:     *dotHeight,
		BaseThickness: *base,
	})
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
	printResult(c, res)
}

func handleQR(args []string) {
	fs := flag.NewFlagSet("qr", flag.ExitOnError)
	data := fs.String("data", "", "Data to encode (required)")
	raised := fs.Float64("raised", 2, "Module height in mm above the base")
	base := fs.Float64("base", 2, "Base thickness in mm")
	boxSize := fs.Int("box", 10, "Raster cells per QR module")
	stamp := fs.Bool("stamp", false, "Invert for use as a stamp")
	outputDir := fs.String("output", "output", "Output directory")
	dbPath := fs.String("db", "", "History database path")
	fs.Parse(args)

	if *data == "" {
		fmt.Fprintln(os.Stderr, "Error: --data flag is required")
		fs.Usage()
		os.Exit(1)
	}

	c, cleanup := newConverter(*outputDir, *dbPath)
	defer cleanup()

	res, err := c.QR(heightmap.QR{
		Data:          *data,
		RaisedHeight:  *raised,
		BaseThickness: *base,
		BoxSize:       *boxSize,
		Invert:        *stamp,
	})
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
	printResult(c, res)
}

func handleTopo(args []string) {
	fs := flag.NewFlagSet("topo", flag.ExitOnError)
	csvPath := fs.String("csv", "", "Elevation CSV with lat/lon/elevation columns")
	demo := fs.Bool("demo", false, "Generate the synthetic demonstration terrain")
	gridSize := fs.Int("grid-size", 100, "Lattice resolution per axis")
	verticalScale := fs.Float64("vertical-scale", 0, "Multiplier on elevations (demo default 10)")
	outputDir := fs.String("output", "output", "Output directory")
	dbPath := fs.String("db", "", "History database path")
	plotPath := fs.String("plot", "", "Save a PNG heat map of the grid")
	fs.Parse(args)

	c, cleanup := newConverter(*outputDir, *dbPath)
	defer cleanup()

	if *demo {
		p := heightmap.DemoTerrain{Size: *gridSize, VerticalScale: *verticalScale}
		plotGrid(*plotPath, "demo terrain", p)
		res, err := c.TopoDemo(p)
		if err != nil {
			log.Fatalf("Conversion failed: %v", err)
		}
		printResult(c, res)
		return
	}

	if *csvPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --csv flag is required (or use --demo)")
		fs.Usage()
		os.Exit(1)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV: %v", err)
	}
	points, err := heightmap.ParseElevationCSV(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to parse CSV: %v", err)
	}

	p := heightmap.Elevation{
		Points:        points,
		GridSize:      *gridSize,
		VerticalScale: *verticalScale,
	}
	plotGrid(*plotPath, *csvPath, p)

	res, err := c.Topo(*csvPath, p)
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
	printResult(c, res)
}

func handleDepth(args []string) {
	fs := flag.NewFlagSet("depth", flag.ExitOnError)
	imagePath := fs.String("image", "", "Input image path (required)")
	maxDepth := fs.Float64("max-depth", 15, "Height in mm at the nearest point")
	base := fs.Float64("base", 2, "Base thickness in mm")
	outputDir := fs.String("output", "output", "Output directory")
	dbPath := fs.String("db", "", "History database path")
	plotPath := fs.String("plot", "", "Save a PNG heat map of the grid")
	fs.Parse(args)

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --image flag is required")
		fs.Usage()
		os.Exit(1)
	}

	p := heightmap.Depth{
		Image:         loadImage(*imagePath),
		MaxDepth:      *maxDepth,
		BaseThickness: *base,
	}
	plotGrid(*plotPath, *imagePath, p)

	c, cleanup := newConverter(*outputDir, *dbPath)
	defer cleanup()

	res, err := c.Depth(*imagePath, p)
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
	printResult(c, res)
}

func handleMulti(args []string) {
	fs := flag.NewFlagSet("multi", flag.ExitOnError)
	imagePath := fs.String("image", "", "Input image path (required)")
	threshold := fs.Int("threshold", 128, "Brightness split point (0-255)")
	height := fs.Float64("height", 10, "Height in mm at full intensity")
	base := fs.Float64("base", 2, "Base thickness in mm")
	outputDir := fs.String("output", "output", "Output directory")
	dbPath := fs.String("db", "", "History database path")
	fs.Parse(args)

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --image flag is required")
		fs.Usage()
		os.Exit(1)
	}
	if *threshold < 0 || *threshold > 255 {
		log.Fatalf("Threshold must be between 0 and 255, got %d", *threshold)
	}

	c, cleanup := newConverter(*outputDir, *dbPath)
	defer cleanup()

	res, err := c.MultiMaterial(*imagePath, heightmap.ThresholdSplit{
		Image:         loadImage(*imagePath),
		Threshold:     uint8(*threshold),
		MaxHeight:     *height,
		BaseThickness: *base,
	})
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
	printResult(c, res)
}

func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := fs.String("listen", ":8080", "Listen address")
	outputDir := fs.String("output", "output", "Output directory")
	dbPath := fs.String("db", "formlift.db", "History database path")
	fs.Parse(args)

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	c, cleanup := newConverter(*outputDir, *dbPath)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := api.NewServer(c, c.Store).ServeMux()
	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		log.Printf("listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func handleMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "formlift.db", "History database path")
	migrationsDir := fs.String("migrations", "migrations", "Migrations directory")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: formlift migrate [flags] <up|down|status>")
		os.Exit(1)
	}

	db, err := store.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open history database: %v", err)
	}
	defer db.Close()

	switch fs.Arg(0) {
	case "up":
		if err := db.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Println("all migrations applied")
	case "down":
		if err := db.MigrateDown(*migrationsDir); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Println("migration rolled back")
	case "status":
		v, dirty, err := db.MigrateVersion(*migrationsDir)
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		fmt.Printf("version: %d dirty: %v\n", v, dirty)
	default:
		fmt.Fprintf(os.Stderr, "Unknown migrate action: %s\n", fs.Arg(0))
		os.Exit(1)
	}
}
