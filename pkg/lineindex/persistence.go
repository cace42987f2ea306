package lineindex

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/kass/go-geo-hatch/pkg/models"
)

// IndexData represents the serializable form of the segment index
type IndexData struct {
	Segments []models.Segment `json:"segments"`
	Count    int64            `json:"count"`
}

// SaveToFile saves the index to a binary file
func (g *SegmentIndex) SaveToFile(filename string) error {
	// rtreego has no iterator, so pull everything with a world-sized box
	world := models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: -180, Lat: -90},
		TopRight:   models.GeoPoint{Lon: 180, Lat: 90},
	}

	segments, err := g.QueryBox(world)
	if err != nil {
		return fmt.Errorf("failed to extract segments: %w", err)
	}

	data := IndexData{
		Segments: segments,
		Count:    g.itemCount.Load(),
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	return nil
}

// LoadFromFile loads the index from a binary file
func (g *SegmentIndex) LoadFromFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data IndexData
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}

	// Clear existing index and rebuild
	g.Clear()
	if err := g.IndexSegments(data.Segments); err != nil {
		return fmt.Errorf("failed to index segments: %w", err)
	}

	return nil
}
