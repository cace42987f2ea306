package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kass/go-geo-hatch/pkg/hatch"
	"github.com/kass/go-geo-hatch/pkg/models"
)

type BenchmarkResult struct {
	Fidelity      string
	TotalRuns     int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	RunsPerSec    float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	TotalSegments int64
	AvgSegments   float64
}

func main() {
	var (
		numPolygons = flag.Int("n", 1000, "Number of polygons to hatch")
		workers     = flag.Int("w", runtime.NumCPU(), "Number of concurrent workers")
		vertices    = flag.Int("vertices", 12, "Vertices per generated polygon")
		fidelity    = flag.String("t", "both", "Fidelity to benchmark: planar, geodesic, both")
		spacing     = flag.Float64("spacing", 100, "Line spacing in meters")
		offset      = flag.Float64("offset", 50, "Edge offset in meters")
		// Geographic bounds for random polygons (default: roughly USA)
		minLat   = flag.Float64("min-lat", 25.0, "Minimum latitude for polygon centers")
		maxLat   = flag.Float64("max-lat", 49.0, "Maximum latitude for polygon centers")
		minLon   = flag.Float64("min-lon", -125.0, "Minimum longitude for polygon centers")
		maxLon   = flag.Float64("max-lon", -66.0, "Maximum longitude for polygon centers")
		radiusKm = flag.Float64("radius", 1.0, "Polygon radius in km")
		seed     = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	log.Printf("Generating %d random convex polygons (%d vertices, ~%.1f km radius)...\n",
		*numPolygons, *vertices, *radiusKm)
	rings := generateRandomRings(*numPolygons, *vertices, *radiusKm,
		*minLat, *maxLat, *minLon, *maxLon, *seed)

	var results []BenchmarkResult
	switch *fidelity {
	case "planar":
		results = append(results, benchmarkFidelity(rings, models.FidelityPlanar, *workers, *spacing, *offset))
	case "geodesic":
		results = append(results, benchmarkFidelity(rings, models.FidelityGeodesic, *workers, *spacing, *offset))
	case "both":
		results = append(results, benchmarkFidelity(rings, models.FidelityPlanar, *workers, *spacing, *offset))
		results = append(results, benchmarkFidelity(rings, models.FidelityGeodesic, *workers, *spacing, *offset))
	default:
		log.Fatalf("Unknown fidelity: %s", *fidelity)
	}

	for _, result := range results {
		fmt.Printf("\n=== Benchmark Results (%s) ===\n", result.Fidelity)
		fmt.Printf("Total Runs: %d\n", result.TotalRuns)
		fmt.Printf("Total Duration: %v\n", result.TotalDuration)
		fmt.Printf("Average Duration: %v\n", result.AvgDuration)
		fmt.Printf("Runs/Second: %.2f\n", result.RunsPerSec)
		fmt.Printf("Min Duration: %v\n", result.MinDuration)
		fmt.Printf("Max Duration: %v\n", result.MaxDuration)
		fmt.Printf("Total Segments: %d\n", result.TotalSegments)
		fmt.Printf("Avg Segments/Run: %.2f\n", result.AvgSegments)
	}
	fmt.Printf("\nWorkers Used: %d\n", *workers)
	fmt.Printf("CPU Cores: %d\n", runtime.NumCPU())

	if len(results) == 2 && results[1].RunsPerSec > 0 {
		ratio := results[0].RunsPerSec / results[1].RunsPerSec
		fmt.Printf("Planar fidelity is %.1fx faster than geodesic\n", ratio)
	}
}

func benchmarkFidelity(rings []models.Ring, fidelity models.Fidelity, workers int,
	spacing, offset float64) BenchmarkResult {

	params := models.Params{
		Spacing:  spacing,
		Offset:   offset,
		Bearing:  0,
		Fidelity: fidelity,
	}

	var (
		totalSegments int64
		minDuration   = time.Hour
		maxDuration   time.Duration
		durations     []time.Duration
		mu            sync.Mutex
	)

	startTime := time.Now()

	// Worker pool
	ringCh := make(chan models.Ring, len(rings))
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()

			for ring := range ringCh {
				runStart := time.Now()
				segments, err := hatch.Generate(ring, params)
				runDuration := time.Since(runStart)

				if err != nil {
					log.Printf("Generate error: %v", err)
					continue
				}
				atomic.AddInt64(&totalSegments, int64(len(segments)))

				mu.Lock()
				durations = append(durations, runDuration)
				if runDuration < minDuration {
					minDuration = runDuration
				}
				if runDuration > maxDuration {
					maxDuration = runDuration
				}
				mu.Unlock()
			}
		}()
	}

	for _, ring := range rings {
		ringCh <- ring
	}
	close(ringCh)

	wg.Wait()
	totalDuration := time.Since(startTime)

	var totalDur time.Duration
	for _, d := range durations {
		totalDur += d
	}
	avgDuration := time.Duration(0)
	if len(durations) > 0 {
		avgDuration = totalDur / time.Duration(len(durations))
	}

	return BenchmarkResult{
		Fidelity:      fidelity.String(),
		TotalRuns:     len(rings),
		TotalDuration: totalDuration,
		AvgDuration:   avgDuration,
		RunsPerSec:    float64(len(rings)) / totalDuration.Seconds(),
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		TotalSegments: totalSegments,
		AvgSegments:   float64(totalSegments) / float64(len(rings)),
	}
}

// generateRandomRings builds convex test polygons: vertices on a circle at
// sorted random angles around a random center.
func generateRandomRings(n, vertices int, radiusKm,
	minLat, maxLat, minLon, maxLon float64, seed int64) []models.Ring {

	r := rand.New(rand.NewSource(seed))
	rings := make([]models.Ring, n)

	for i := 0; i < n; i++ {
		centerLat := minLat + r.Float64()*(maxLat-minLat)
		centerLon := minLon + r.Float64()*(maxLon-minLon)

		angles := make([]float64, vertices)
		for j := range angles {
			angles[j] = r.Float64() * 2 * math.Pi
		}
		sort.Float64s(angles)

		radiusDeg := radiusKm / 111.0
		ring := make(models.Ring, vertices)
		for j, angle := range angles {
			ring[j] = models.GeoPoint{
				Lon: centerLon + radiusDeg*math.Cos(angle)/math.Cos(centerLat*math.Pi/180),
				Lat: centerLat + radiusDeg*math.Sin(angle),
			}
		}
		rings[i] = ring
	}

	return rings
}
