package geo

import (
	"math"
)

// CameraProximityThresholdMeters is how close a camera must be to a route
// before its congestion can affect drivers on that route.
const CameraProximityThresholdMeters = 100.0

// DistanceToRoute returns the minimum geodesic distance in meters from
// point to the polyline formed by route. +Inf for an empty route.
func DistanceToRoute(route []Coordinate, point Coordinate) float64 {
	if len(route) == 0 {
		return math.Inf(1)
	}
	if len(route) == 1 {
		return CalculateHaversineDistance(point.Lat, point.Lon, route[0].Lat, route[0].Lon) * 1000
	}

	minDist := math.Inf(1)
	for i := 0; i < len(route)-1; i++ {
		d := PointLinePerpendicularDistance(route[i], route[i+1], point)
		if d < minDist {
			minDist = d
		}
	}
	return minDist
}

// IsCameraNearRoute reports whether camera lies within
// CameraProximityThresholdMeters of the route.
func IsCameraNearRoute(route []Coordinate, camera Coordinate) bool {
	return DistanceToRoute(route, camera) <= CameraProximityThresholdMeters
}

// NearestPointIndex returns the index of the route vertex closest to point.
// ties go to the earlier vertex. -1 for an empty route.
func NearestPointIndex(route []Coordinate, point Coordinate) int {
	minDist := math.Inf(1)
	nearest := -1
	for i, c := range route {
		d := CalculateHaversineDistance(point.Lat, point.Lon, c.Lat, c.Lon)
		if d < minDist {
			minDist = d
			nearest = i
		}
	}
	return nearest
}

// IsAheadOnRoute reports whether congestionPoint lies strictly ahead of
// driverLocation in route traversal order. Vertex index is used as a
// progress proxy, which can mis-rank on self-intersecting or out-and-back
// routes.
func IsAheadOnRoute(route []Coordinate, driverLocation, congestionPoint Coordinate) bool {
	driverIdx := NearestPointIndex(route, driverLocation)
	congestionIdx := NearestPointIndex(route, congestionPoint)
	if driverIdx < 0 || congestionIdx < 0 {
		return false
	}
	return driverIdx < congestionIdx
}
