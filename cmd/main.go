package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kass/go-geo-hatch/pkg/geojson"
	"github.com/kass/go-geo-hatch/pkg/hatch"
	"github.com/kass/go-geo-hatch/pkg/lineindex"
	"github.com/kass/go-geo-hatch/pkg/models"
	"github.com/kass/go-geo-hatch/pkg/postgis"
	"github.com/kass/go-geo-hatch/pkg/svg"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "geohatch",
	Short: "Parallel hatching line generator for geographic polygons",
	Long:  `Generates evenly spaced survey lines over a polygon boundary, with planar or ellipsoidal (geodesic) fidelity, plus tooling to render, index, query and export the resulting plans.`,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate hatching lines for a polygon",
	Long:  `Read a polygon from a GeoJSON file and write the generated hatching lines as a GeoJSON FeatureCollection of LineStrings.`,
	Run:   runGenerate,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a plan to SVG",
	Long:  `Draw a generated plan, optionally together with its polygon boundary, as an SVG picture.`,
	Run:   runRender,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build a spatial index over a plan",
	Long:  `Index the segments of a generated plan into an R-Tree and save it to a binary file.`,
	Run:   runIndex,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query an indexed plan",
	Long:  `Run bounding box, radius or nearest-neighbor queries against a saved segment index.`,
	Run:   runQuery,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a plan to PostGIS",
	Long:  `Insert the segments of a generated plan into a PostGIS survey_lines table.`,
	Run:   runExport,
}

var (
	inputFile  string
	outputFile string
	spacing    float64
	bearing    float64
	offset     float64
	fidelity   string
	maxLines   int
	svgFile    string
	svgWidth   int
	endpoints  bool

	polygonFile string
	indexFile   string
	boxFlag     string
	centerFlag  string
	radius      float64
	nearest     int

	pgHost     string
	pgPort     int
	pgUser     string
	pgPassword string
	pgDatabase string
	jobName    string
	pgInit     bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	generateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Polygon GeoJSON file (required)")
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "lines.geojson", "Output GeoJSON file")
	generateCmd.Flags().Float64Var(&spacing, "spacing", 100, "Line spacing in meters")
	generateCmd.Flags().Float64Var(&bearing, "bearing", 0, "Line bearing in degrees clockwise from north")
	generateCmd.Flags().Float64Var(&offset, "offset", 50, "Edge offset in meters")
	generateCmd.Flags().StringVar(&fidelity, "fidelity", "planar", "Coordinate math: planar or geodesic")
	generateCmd.Flags().IntVar(&maxLines, "max-lines", 0, "Abort if more scan lines would be needed (0 = unlimited)")
	generateCmd.Flags().StringVar(&svgFile, "svg", "", "Also render the plan to this SVG file")
	generateCmd.Flags().IntVar(&svgWidth, "svg-width", 1000, "SVG width in pixels")
	generateCmd.MarkFlagRequired("input")

	renderCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Plan GeoJSON file (required)")
	renderCmd.Flags().StringVarP(&polygonFile, "polygon", "p", "", "Polygon GeoJSON file to draw behind the lines")
	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "plan.svg", "Output SVG file")
	renderCmd.Flags().IntVar(&svgWidth, "width", 1000, "SVG width in pixels")
	renderCmd.Flags().BoolVar(&endpoints, "endpoints", false, "Mark segment endpoints")
	renderCmd.MarkFlagRequired("input")

	indexCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Plan GeoJSON file (required)")
	indexCmd.Flags().StringVarP(&indexFile, "file", "f", "plan.gob", "Index file path")
	indexCmd.MarkFlagRequired("input")

	queryCmd.Flags().StringVarP(&indexFile, "file", "f", "plan.gob", "Index file path")
	queryCmd.Flags().StringVar(&boxFlag, "box", "", "Bounding box query: minLon,minLat,maxLon,maxLat")
	queryCmd.Flags().StringVar(&centerFlag, "center", "", "Center point for radius/nearest queries: lon,lat")
	queryCmd.Flags().Float64Var(&radius, "radius", 0, "Radius query distance in meters")
	queryCmd.Flags().IntVar(&nearest, "nearest", 0, "Number of nearest segments to find")

	exportCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Plan GeoJSON file (required)")
	exportCmd.Flags().StringVar(&pgHost, "host", "localhost", "PostGIS host")
	exportCmd.Flags().IntVar(&pgPort, "port", 5432, "PostGIS port")
	exportCmd.Flags().StringVar(&pgUser, "user", "postgres", "PostGIS user")
	exportCmd.Flags().StringVar(&pgPassword, "password", "postgres", "PostGIS password")
	exportCmd.Flags().StringVar(&pgDatabase, "dbname", "geodb", "PostGIS database")
	exportCmd.Flags().StringVar(&jobName, "job", "default", "Job name for the exported plan")
	exportCmd.Flags().BoolVar(&pgInit, "init", false, "Recreate the schema and spatial index")
	exportCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(generateCmd, renderCmd, indexCmd, queryCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) {
	ring := readRing(inputFile)

	fid, err := models.ParseFidelity(fidelity)
	if err != nil {
		log.Fatal(err)
	}
	params := models.Params{
		Spacing:  spacing,
		Bearing:  bearing,
		Offset:   offset,
		Fidelity: fid,
		MaxLines: maxLines,
	}

	start := time.Now()
	segments, err := hatch.Generate(ring, params)
	if err != nil {
		log.Fatalf("Failed to generate plan: %v", err)
	}
	elapsed := time.Since(start)

	data, err := geojson.WriteSegments(segments)
	if err != nil {
		log.Fatalf("Failed to encode plan: %v", err)
	}
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", outputFile, err)
	}

	fmt.Printf("Generated %d segments in %v (%s fidelity, spacing %.0fm, bearing %.0f, offset %.0fm)\n",
		len(segments), elapsed, fid, spacing, bearing, offset)
	fmt.Printf("Plan written to %s\n", outputFile)

	if svgFile != "" {
		writeSVG(svgFile, ring, segments)
		fmt.Printf("Rendered plan to %s\n", svgFile)
	}
}

func runRender(cmd *cobra.Command, args []string) {
	segments := readSegments(inputFile)

	var ring models.Ring
	if polygonFile != "" {
		ring = readRing(polygonFile)
	}

	writeSVG(outputFile, ring, segments)
	fmt.Printf("Rendered %d segments to %s\n", len(segments), outputFile)
}

func runIndex(cmd *cobra.Command, args []string) {
	segments := readSegments(inputFile)

	index := lineindex.NewSegmentIndex()
	start := time.Now()
	if err := index.IndexSegments(segments); err != nil {
		log.Fatalf("Failed to index segments: %v", err)
	}
	elapsed := time.Since(start)

	if err := index.SaveToFile(indexFile); err != nil {
		log.Fatalf("Failed to save index: %v", err)
	}

	fmt.Printf("Indexed %d segments in %v\n", index.Count(), elapsed)
	fmt.Printf("Index saved to %s\n", indexFile)
}

func runQuery(cmd *cobra.Command, args []string) {
	index := lineindex.NewSegmentIndex()
	if err := index.LoadFromFile(indexFile); err != nil {
		log.Fatalf("Failed to load index: %v", err)
	}
	if verbose {
		fmt.Printf("Loaded %d segments from %s\n", index.Count(), indexFile)
	}

	var (
		results []models.Segment
		err     error
	)
	switch {
	case boxFlag != "":
		box := parseBox(boxFlag)
		results, err = index.QueryBox(box)
	case radius > 0:
		results, err = index.QueryRadius(parsePoint(centerFlag), radius)
	case nearest > 0:
		results = index.Nearest(parsePoint(centerFlag), nearest)
	default:
		log.Fatal("Specify one of --box, --radius or --nearest")
	}
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}

	fmt.Printf("Found %d segments:\n", len(results))
	for i, seg := range results {
		fmt.Printf("  %d. (%.6f, %.6f) -> (%.6f, %.6f)\n",
			i+1, seg.Start.Lon, seg.Start.Lat, seg.End.Lon, seg.End.Lat)
	}
}

func runExport(cmd *cobra.Command, args []string) {
	segments := readSegments(inputFile)

	store, err := postgis.NewLineStore(pgHost, pgUser, pgPassword, pgDatabase, pgPort)
	if err != nil {
		log.Fatalf("Failed to connect to PostGIS: %v", err)
	}
	defer store.Close()

	if pgInit {
		if err := store.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
	}

	start := time.Now()
	if err := store.BulkInsertSegments(jobName, segments); err != nil {
		log.Fatalf("Failed to insert segments: %v", err)
	}
	elapsed := time.Since(start)

	if pgInit {
		if err := store.CreateSpatialIndex(); err != nil {
			log.Fatalf("Failed to create spatial index: %v", err)
		}
	}

	count, err := store.Count()
	if err != nil {
		log.Fatalf("Failed to count segments: %v", err)
	}
	fmt.Printf("Exported %d segments as job %q in %v (%d rows total)\n",
		len(segments), jobName, elapsed, count)
}

func readRing(path string) models.Ring {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}
	ring, err := geojson.ReadRing(data)
	if err != nil {
		log.Fatalf("Failed to parse polygon from %s: %v", path, err)
	}
	return ring
}

func readSegments(path string) []models.Segment {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}
	segments, err := geojson.ReadSegments(data)
	if err != nil {
		log.Fatalf("Failed to parse plan from %s: %v", path, err)
	}
	return segments
}

func writeSVG(path string, ring models.Ring, segments []models.Segment) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := svg.RenderPlan(f, ring, segments, svgWidth, endpoints); err != nil {
		log.Fatalf("Failed to render SVG: %v", err)
	}
}

func parsePoint(s string) models.GeoPoint {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		log.Fatalf("Invalid point %q (want lon,lat)", s)
	}
	lon, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lat, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		log.Fatalf("Invalid point %q (want lon,lat)", s)
	}
	return models.GeoPoint{Lon: lon, Lat: lat}
}

func parseBox(s string) models.BoundingBox {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		log.Fatalf("Invalid box %q (want minLon,minLat,maxLon,maxLat)", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			log.Fatalf("Invalid box %q: %v", s, err)
		}
		vals[i] = v
	}
	return models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: vals[0], Lat: vals[1]},
		TopRight:   models.GeoPoint{Lon: vals[2], Lat: vals[3]},
	}
}
