package main

import (
	"fmt"
	"log"

	"github.com/kass/go-geo-hatch/pkg/geodesic"
	"github.com/kass/go-geo-hatch/pkg/hatch"
	"github.com/kass/go-geo-hatch/pkg/lineindex"
	"github.com/kass/go-geo-hatch/pkg/models"
)

func main() {
	// A field boundary near Fargo, ND
	field := models.Ring{
		{Lon: -96.8100, Lat: 46.8700},
		{Lon: -96.7950, Lat: 46.8725},
		{Lon: -96.7900, Lat: 46.8650},
		{Lon: -96.7975, Lat: 46.8575},
		{Lon: -96.8125, Lat: 46.8600},
	}

	params := models.DefaultParams()
	params.Bearing = 45
	params.Fidelity = models.FidelityGeodesic

	segments, err := hatch.Generate(field, params)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Generated %d survey lines (spacing %.0fm, bearing %.0f, offset %.0fm)\n\n",
		len(segments), params.Spacing, params.Bearing, params.Offset)

	// Example 1: inspect the first few lines
	fmt.Println("=== First Lines ===")
	for i, seg := range segments {
		if i >= 5 {
			break
		}
		length := geodesic.Distance(seg.Start, seg.End)
		fmt.Printf("  %d. (%.5f, %.5f) -> (%.5f, %.5f)  %.0fm\n",
			i+1, seg.Start.Lon, seg.Start.Lat, seg.End.Lon, seg.End.Lat, length)
	}

	// Example 2: index the plan and query around the field center
	fmt.Println("\n=== Indexed Queries ===")
	index := lineindex.NewSegmentIndex()
	if err := index.IndexSegments(segments); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Indexed %d segments\n", index.Count())

	center := models.GeoPoint{Lon: -96.8000, Lat: 46.8650}
	near, err := index.QueryRadius(center, 200)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Found %d lines within 200m of the field center\n", len(near))

	nearest := index.Nearest(center, 3)
	fmt.Printf("3 nearest lines:\n")
	for i, seg := range nearest {
		fmt.Printf("  %d. %.1fm away\n", i+1, lineindex.DistanceToSegment(center, seg))
	}

	// Example 3: persist the index
	fmt.Println("\n=== Saving Index ===")
	if err := index.SaveToFile("plan.gob"); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Index saved to plan.gob")

	loaded := lineindex.NewSegmentIndex()
	if err := loaded.LoadFromFile("plan.gob"); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Loaded index with %d segments\n", loaded.Count())
}
