package geo

import (
	polyline "github.com/twpayne/go-polyline"
)

// DecodeRoutePolyline decodes an encoded path string into route
// coordinates. A nil result means "no route" (empty or malformed input).
func DecodeRoutePolyline(encoded string) []Coordinate {
	if encoded == "" {
		return nil
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil
	}
	route := make([]Coordinate, len(coords))
	for i, c := range coords {
		route[i] = NewCoordinate(c[0], c[1])
	}
	return route
}

// EncodeRoutePolyline encodes route coordinates into the compact path
// string representation.
func EncodeRoutePolyline(route []Coordinate) string {
	coords := make([][]float64, len(route))
	for i, c := range route {
		coords[i] = []float64{c.Lat, c.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}
