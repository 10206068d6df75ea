package spatialindex

import (
	"math"

	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"github.com/tidwall/rtree"
)

const metersPerDegreeLat = 111194.93

// CameraIndex is an r-tree over camera coordinates, used to prefilter the
// fleet before the exact geodesic route-distance test.
type CameraIndex struct {
	tr *rtree.RTreeG[da.CameraObservation]
}

// NewCameraIndex builds the index from a camera snapshot. Point entries,
// one per camera.
func NewCameraIndex(cameras []da.CameraObservation) *CameraIndex {
	var tr rtree.RTreeG[da.CameraObservation]
	for _, cam := range cameras {
		tr.Insert([2]float64{cam.Lng, cam.Lat}, [2]float64{cam.Lng, cam.Lat}, cam)
	}
	return &CameraIndex{tr: &tr}
}

// SearchNearRoute returns the cameras within radiusMeters of the route.
// Candidates come from an r-tree query over the route's bounding box
// expanded by the radius; each candidate is confirmed with the exact
// point-to-route distance.
func (ci *CameraIndex) SearchNearRoute(route []geo.Coordinate, radiusMeters float64) []da.CameraObservation {
	if len(route) == 0 {
		return nil
	}

	minLat, minLon := math.Inf(1), math.Inf(1)
	maxLat, maxLon := math.Inf(-1), math.Inf(-1)
	for _, c := range route {
		minLat = math.Min(minLat, c.Lat)
		minLon = math.Min(minLon, c.Lon)
		maxLat = math.Max(maxLat, c.Lat)
		maxLon = math.Max(maxLon, c.Lon)
	}

	dLat := radiusMeters / metersPerDegreeLat
	// widen the longitude margin by the route's worst-case latitude
	cosLat := math.Cos(util.DegreeToRadians(math.Max(math.Abs(minLat), math.Abs(maxLat))))
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLon := dLat / cosLat

	var near []da.CameraObservation
	ci.tr.Search(
		[2]float64{minLon - dLon, minLat - dLat},
		[2]float64{maxLon + dLon, maxLat + dLat},
		func(min, max [2]float64, cam da.CameraObservation) bool {
			if geo.DistanceToRoute(route, geo.NewCoordinate(cam.Lat, cam.Lng)) <= radiusMeters {
				near = append(near, cam)
			}
			return true
		})
	return near
}
