package usecases

import (
	"context"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"go.uber.org/zap"
)

// DriverService reads a driver's live position from the fleet backend and
// keeps the active session's cached location in step with it.
type DriverService struct {
	log     *zap.Logger
	fleet   FleetBackend
	drivers *datastore.DriverStore
}

func NewDriverService(log *zap.Logger, fleet FleetBackend, drivers *datastore.DriverStore) *DriverService {
	return &DriverService{log: log, fleet: fleet, drivers: drivers}
}

func (ds *DriverService) DriverLocation(ctx context.Context, driverID string) (geo.Coordinate, error) {
	location, err := ds.fleet.DriverLocation(ctx, driverID)
	if err != nil {
		return geo.Coordinate{}, err
	}
	if _, err := ds.drivers.UpdateLocation(driverID, location.Lat, location.Lon); err != nil {
		return geo.Coordinate{}, err
	}
	return location, nil
}
