// Package lineindex implements an R-Tree index over generated hatching
// segments with goroutine-based parallel query execution across
// longitude-band partitions.
package lineindex

import (
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"

	"github.com/kass/go-geo-hatch/pkg/geodesic"
	"github.com/kass/go-geo-hatch/pkg/models"
	"github.com/kass/go-geo-hatch/pkg/planar"
	"github.com/kass/go-geo-hatch/pkg/projection"
)

const (
	tolerance   = 0.0001 // degrees, pads degenerate (axis-aligned) rects
	minChildren = 25
	maxChildren = 50
	dimensions  = 2

	earthRadius = 6371000.0 // m
)

// spatialSegment wraps a segment to implement rtreego.Spatial
type spatialSegment struct {
	seg  models.Segment
	rect *rtreego.Rect
}

func (s *spatialSegment) Bounds() *rtreego.Rect {
	return s.rect
}

func segmentRect(seg models.Segment) (*rtreego.Rect, error) {
	minLat := math.Min(seg.Start.Lat, seg.End.Lat)
	minLon := math.Min(seg.Start.Lon, seg.End.Lon)
	maxLat := math.Max(seg.Start.Lat, seg.End.Lat)
	maxLon := math.Max(seg.Start.Lon, seg.End.Lon)
	return rtreego.NewRect(
		rtreego.Point{minLat - tolerance, minLon - tolerance},
		[]float64{maxLat - minLat + 2*tolerance, maxLon - minLon + 2*tolerance},
	)
}

// SegmentIndex is a thread-safe R-Tree index over hatching segments,
// partitioned by longitude band for parallel query execution.
type SegmentIndex struct {
	partitions []*rtreego.Rtree
	numCPU     int
	mu         sync.RWMutex
	itemCount  atomic.Int64

	partitionBounds []models.BoundingBox
}

// NewSegmentIndex creates an index with one partition per CPU.
func NewSegmentIndex() *SegmentIndex {
	return NewSegmentIndexWithPartitions(runtime.NumCPU())
}

// NewSegmentIndexWithPartitions creates an index with the given partition
// count; non-positive counts fall back to the CPU count.
func NewSegmentIndexWithPartitions(numPartitions int) *SegmentIndex {
	if numPartitions <= 0 {
		numPartitions = runtime.NumCPU()
	}

	partitions := make([]*rtreego.Rtree, numPartitions)
	partitionBounds := make([]models.BoundingBox, numPartitions)

	// Partition by longitude band
	lonRange := 360.0 / float64(numPartitions)
	for i := 0; i < numPartitions; i++ {
		partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)

		minLon := -180.0 + float64(i)*lonRange
		maxLon := minLon + lonRange
		if i == numPartitions-1 {
			maxLon = 180.0
		}

		partitionBounds[i] = models.BoundingBox{
			BottomLeft: models.GeoPoint{Lon: minLon, Lat: -90},
			TopRight:   models.GeoPoint{Lon: maxLon, Lat: 90},
		}
	}

	return &SegmentIndex{
		partitions:      partitions,
		numCPU:          numPartitions,
		partitionBounds: partitionBounds,
	}
}

// IndexSegments inserts segments, routed to partitions by the longitude of
// their midpoint. Partitions are filled in parallel.
func (g *SegmentIndex) IndexSegments(segments []models.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	partitioned := make([][]*spatialSegment, g.numCPU)
	for i := range partitioned {
		partitioned[i] = make([]*spatialSegment, 0, len(segments)/g.numCPU)
	}

	lonRange := 360.0 / float64(g.numCPU)
	for _, seg := range segments {
		rect, err := segmentRect(seg)
		if err != nil {
			return err
		}

		midLon := (seg.Start.Lon + seg.End.Lon) / 2
		idx := int((midLon + 180.0) / lonRange)
		if idx >= g.numCPU {
			idx = g.numCPU - 1
		}
		if idx < 0 {
			idx = 0
		}

		partitioned[idx] = append(partitioned[idx], &spatialSegment{seg: seg, rect: rect})
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < g.numCPU; i++ {
		if len(partitioned[i]) == 0 {
			continue
		}

		wg.Add(1)
		go func(idx int, items []*spatialSegment) {
			defer wg.Done()
			for _, item := range items {
				g.partitions[idx].Insert(item)
			}
		}(i, partitioned[i])
	}

	wg.Wait()
	g.itemCount.Add(int64(len(segments)))
	return nil
}

// QueryBox returns all segments whose bounding extent intersects the given
// box, searching the relevant partitions in parallel.
func (g *SegmentIndex) QueryBox(box models.BoundingBox) ([]models.Segment, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	relevant := g.relevantPartitions(box)
	resultsChan := make(chan []models.Segment, len(relevant))

	for _, partitionIdx := range relevant {
		go func(idx int) {
			bounds, err := rtreego.NewRect(
				rtreego.Point{box.BottomLeft.Lat, box.BottomLeft.Lon},
				[]float64{
					box.TopRight.Lat - box.BottomLeft.Lat,
					box.TopRight.Lon - box.BottomLeft.Lon,
				},
			)
			if err != nil {
				resultsChan <- nil
				return
			}

			results := g.partitions[idx].SearchIntersect(bounds)

			segments := make([]models.Segment, 0, len(results))
			for _, result := range results {
				item, ok := result.(*spatialSegment)
				if !ok {
					continue
				}
				// The rect carries the tolerance padding; re-check the
				// segment's true extent against the query box.
				if segmentIntersectsBox(item.seg, box) {
					segments = append(segments, item.seg)
				}
			}

			resultsChan <- segments
		}(partitionIdx)
	}

	var all []models.Segment
	for i := 0; i < len(relevant); i++ {
		if partial := <-resultsChan; partial != nil {
			all = append(all, partial...)
		}
	}

	return all, nil
}

// QueryRadius returns all segments passing within radiusMeters of a center
// point. A bounding-box prefilter feeds an exact point-to-segment distance
// check in a local planar frame.
func (g *SegmentIndex) QueryRadius(center models.GeoPoint, radiusMeters float64) ([]models.Segment, error) {
	deg := radiusMeters / earthRadius * 180 / math.Pi
	// Longitude degrees shrink with latitude; widen the prefilter accordingly
	lonDeg := deg
	if cosLat := math.Cos(center.Lat * math.Pi / 180); cosLat > 0.01 {
		lonDeg = deg / cosLat
	} else {
		lonDeg = 180
	}

	box := models.BoundingBox{
		BottomLeft: models.GeoPoint{Lon: center.Lon - lonDeg, Lat: center.Lat - deg},
		TopRight:   models.GeoPoint{Lon: center.Lon + lonDeg, Lat: center.Lat + deg},
	}

	candidates, err := g.QueryBox(box)
	if err != nil {
		return nil, err
	}

	segments := make([]models.Segment, 0, len(candidates))
	for _, seg := range candidates {
		if DistanceToSegment(center, seg) <= radiusMeters {
			segments = append(segments, seg)
		}
	}
	return segments, nil
}

// Nearest returns the n segments closest to the given point, searching every
// partition in parallel and merging by exact distance.
func (g *SegmentIndex) Nearest(center models.GeoPoint, n int) []models.Segment {
	g.mu.RLock()
	defer g.mu.RUnlock()

	type nearestResult struct {
		seg      models.Segment
		distance float64
	}

	resultsChan := make(chan []nearestResult, g.numCPU)

	for i := 0; i < g.numCPU; i++ {
		go func(idx int) {
			queryPoint := rtreego.Point{center.Lat, center.Lon}
			// Oversample per partition so the global top n survives the merge
			results := g.partitions[idx].NearestNeighbors(n*2, queryPoint)

			nearest := make([]nearestResult, 0, len(results))
			for _, result := range results {
				item, ok := result.(*spatialSegment)
				if !ok {
					continue
				}
				nearest = append(nearest, nearestResult{
					seg:      item.seg,
					distance: DistanceToSegment(center, item.seg),
				})
			}

			resultsChan <- nearest
		}(i)
	}

	var all []nearestResult
	for i := 0; i < g.numCPU; i++ {
		all = append(all, <-resultsChan...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].distance < all[j].distance })

	if n > len(all) {
		n = len(all)
	}
	segments := make([]models.Segment, n)
	for i := 0; i < n; i++ {
		segments[i] = all[i].seg
	}
	return segments
}

// Count returns the number of indexed segments.
func (g *SegmentIndex) Count() int64 {
	return g.itemCount.Load()
}

// Clear removes all segments from the index.
func (g *SegmentIndex) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := 0; i < g.numCPU; i++ {
		g.partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)
	}
	g.itemCount.Store(0)
}

// relevantPartitions returns the indices of partitions whose longitude band
// intersects the query box.
func (g *SegmentIndex) relevantPartitions(box models.BoundingBox) []int {
	var relevant []int
	for i, bounds := range g.partitionBounds {
		if box.BottomLeft.Lon <= bounds.TopRight.Lon &&
			box.TopRight.Lon >= bounds.BottomLeft.Lon {
			relevant = append(relevant, i)
		}
	}
	return relevant
}

func segmentIntersectsBox(seg models.Segment, box models.BoundingBox) bool {
	minLat := math.Min(seg.Start.Lat, seg.End.Lat)
	minLon := math.Min(seg.Start.Lon, seg.End.Lon)
	maxLat := math.Max(seg.Start.Lat, seg.End.Lat)
	maxLon := math.Max(seg.Start.Lon, seg.End.Lon)
	return minLon <= box.TopRight.Lon && maxLon >= box.BottomLeft.Lon &&
		minLat <= box.TopRight.Lat && maxLat >= box.BottomLeft.Lat
}

// DistanceToSegment returns the ground distance in meters from a point to
// the closest point of a segment, computed in a local planar frame around
// the three points. A haversine shortcut answers the far-away case first.
func DistanceToSegment(p models.GeoPoint, seg models.Segment) float64 {
	// If even the closer endpoint is far away relative to the segment
	// length, the endpoint distance is accurate enough.
	dStart := geodesic.Haversine(p, seg.Start)
	dEnd := geodesic.Haversine(p, seg.End)
	segLen := geodesic.Haversine(seg.Start, seg.End)
	if math.Min(dStart, dEnd) > 100*segLen && segLen > 0 {
		return math.Min(dStart, dEnd)
	}

	frame := projection.NewFrame(models.Ring{p, seg.Start, seg.End}, 0)
	return planar.DistanceToSegment(
		frame.ToPlanar(p),
		frame.ToPlanar(seg.Start),
		frame.ToPlanar(seg.End),
	)
}
