package geo

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// SRID of the WGS84 coordinates the field app records
const SRID = 4326

// Point converts a marker to a WGS84 geometry in lng/lat order
func (p ULBPoint) Point() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Longitude, p.Latitude}).SetSRID(SRID)
}

// FeatureCollection encodes markers as GeoJSON features carrying the ULB,
// district and dog count as properties
func FeatureCollection(points []ULBPoint) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(points))}
	if len(points) == 0 {
		return fc
	}

	bounds := geom.NewBounds(geom.XY)
	for _, p := range points {
		pt := p.Point()
		bounds.Extend(pt)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("%s/%s", p.District, p.ULB),
			Geometry: pt,
			Properties: map[string]interface{}{
				"ulb":       p.ULB,
				"district":  p.District,
				"dog_count": p.DogCount,
				"map_url":   MapURL(p.Latitude, p.Longitude),
			},
		})
	}
	fc.BBox = bounds
	return fc
}

// MarshalFeatureCollection renders markers as a GeoJSON document
func MarshalFeatureCollection(points []ULBPoint) ([]byte, error) {
	data, err := json.Marshal(FeatureCollection(points))
	if err != nil {
		return nil, fmt.Errorf("failed to encode geojson: %w", err)
	}
	return data, nil
}
