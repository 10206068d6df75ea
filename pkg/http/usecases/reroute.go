package usecases

import (
	"context"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

type RerouteResult struct {
	Polyline     string
	Duration     float64
	DecodedRoute []geo.Coordinate
}

// RerouteService recomputes a driver's route from their current position,
// avoiding flagged congestion areas, and stores the replacement polyline.
type RerouteService struct {
	log       *zap.Logger
	fleet     FleetBackend
	optimizer RouteOptimizer
	drivers   *datastore.DriverStore
}

func NewRerouteService(log *zap.Logger, fleet FleetBackend, optimizer RouteOptimizer,
	drivers *datastore.DriverStore) *RerouteService {
	return &RerouteService{
		log:       log,
		fleet:     fleet,
		optimizer: optimizer,
		drivers:   drivers,
	}
}

func (rs *RerouteService) Reroute(ctx context.Context, driverID string) (RerouteResult, error) {
	location, err := rs.fleet.DriverLocation(ctx, driverID)
	if err != nil {
		return RerouteResult{}, err
	}

	session, ok := rs.drivers.Find(driverID)
	if !ok {
		return RerouteResult{}, util.WrapErrorf(nil, util.ErrNotFound,
			"driver %s has no active session", driverID)
	}
	if _, err := rs.drivers.UpdateLocation(driverID, location.Lat, location.Lon); err != nil {
		return RerouteResult{}, err
	}

	route, err := rs.optimizer.GetOptimisedRoute(ctx,
		formatCoordinate(location), session.Destination, true)
	if err != nil {
		return RerouteResult{}, err
	}

	decoded := geo.DecodeRoutePolyline(route.Polyline)
	if decoded == nil {
		return RerouteResult{}, util.WrapErrorf(nil, util.ErrNotFound,
			"optimised route polyline could not be decoded")
	}

	if err := rs.drivers.UpdateRoute(driverID, route.Polyline); err != nil {
		return RerouteResult{}, err
	}

	rs.log.Info("driver rerouted", zap.String("driver_id", driverID),
		zap.Float64("duration_seconds", route.Duration))

	return RerouteResult{
		Polyline:     route.Polyline,
		Duration:     route.Duration,
		DecodedRoute: decoded,
	}, nil
}
