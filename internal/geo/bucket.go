// Package geo turns records into per-ULB map markers and heatmap samples.
package geo

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"abc-dashboard/internal/catalog"
	"abc-dashboard/internal/records"
)

// HeatmapMode selects how heatmap samples are emitted
type HeatmapMode string

const (
	// PerRecord emits one sample per bucketed record, weighted with the
	// record's ULB dog count
	PerRecord HeatmapMode = "per-record"
	// PerBucket emits one sample per ULB weighted with its dog count
	PerBucket HeatmapMode = "per-bucket"
)

// ParseHeatmapMode validates a configured mode; empty means PerRecord
func ParseHeatmapMode(s string) (HeatmapMode, error) {
	switch HeatmapMode(strings.TrimSpace(s)) {
	case "", PerRecord:
		return PerRecord, nil
	case PerBucket:
		return PerBucket, nil
	default:
		return "", fmt.Errorf("unknown heatmap mode %q", s)
	}
}

// Fallbacks resolves fixed coordinates for a ULB
type Fallbacks interface {
	Fallback(district, ulb string) (catalog.Coordinates, bool)
}

// ULBPoint is one map marker
type ULBPoint struct {
	ULB       string  `json:"ulb"`
	District  string  `json:"district"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	DogCount  int     `json:"dog_count"`
}

// WeightedPoint is one heatmap sample
type WeightedPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Weight    int     `json:"weight"`
}

// Result is the output of BucketByULB
type Result struct {
	Points   []ULBPoint      `json:"points"`
	Heatmap  []WeightedPoint `json:"heatmap"`
	Excluded int             `json:"excluded"`
	Mode     HeatmapMode     `json:"mode"`
}

// BucketByULB groups records into one marker per (district, ulb). A record
// whose coordinates do not parse takes its ULB's fallback coordinates when
// the catalog has them and is otherwise left off the map. A bucket sits at
// the first coordinate resolved for it.
func BucketByULB(recs []records.AnimalRecord, fallbacks Fallbacks, mode HeatmapMode, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = PerRecord
	}

	type key struct{ district, ulb string }
	buckets := make(map[key]*ULBPoint)
	// bucket of each placed record, in input order
	placed := make([]*ULBPoint, 0, len(recs))
	excluded := 0

	for _, r := range recs {
		lat, lng, ok := ParseCoordinates(r.Latitude, r.Longitude)
		if !ok {
			var c catalog.Coordinates
			if fallbacks != nil {
				c, ok = fallbacks.Fallback(r.District, r.ULB)
			}
			if !ok {
				excluded++
				logger.Debug("Record has no usable coordinates, leaving it off the map",
					"id", r.ID,
					"district", r.District,
					"ulb", r.ULB,
					"latitude", string(r.Latitude),
					"longitude", string(r.Longitude))
				continue
			}
			lat, lng = c.Lat, c.Lng
		}

		k := key{r.District, r.ULB}
		b, exists := buckets[k]
		if !exists {
			b = &ULBPoint{ULB: r.ULB, District: r.District, Latitude: lat, Longitude: lng}
			buckets[k] = b
		}
		b.DogCount++
		placed = append(placed, b)
	}

	if excluded > 0 {
		logger.Info("Records excluded from map output", "excluded", excluded, "placed", len(placed))
	}

	points := make([]ULBPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, *b)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].DogCount != points[j].DogCount {
			return points[i].DogCount > points[j].DogCount
		}
		if points[i].ULB != points[j].ULB {
			return points[i].ULB < points[j].ULB
		}
		return points[i].District < points[j].District
	})

	var heat []WeightedPoint
	switch mode {
	case PerBucket:
		heat = make([]WeightedPoint, len(points))
		for i, p := range points {
			heat[i] = WeightedPoint{Latitude: p.Latitude, Longitude: p.Longitude, Weight: p.DogCount}
		}
	default:
		heat = make([]WeightedPoint, len(placed))
		for i, b := range placed {
			heat[i] = WeightedPoint{Latitude: b.Latitude, Longitude: b.Longitude, Weight: b.DogCount}
		}
	}

	return Result{Points: points, Heatmap: heat, Excluded: excluded, Mode: mode}
}

// ParseCoordinates parses a lat/lng pair. Blank, non-numeric, non-finite
// and out-of-range values fail.
func ParseCoordinates(latRaw, lngRaw records.Coordinate) (lat, lng float64, ok bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(string(latRaw)), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(string(lngRaw)), 64)
	if err != nil || math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return 0, 0, false
	}
	return lat, lng, true
}

// MapURL links a coordinate to the map provider's web view
func MapURL(lat, lng float64) string {
	return fmt.Sprintf("https://maps.mapmyindia.com/@%s,%s,17z",
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lng, 'f', -1, 64))
}
