package traffic

import (
	"context"
	"fmt"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/bussin-buses/trafficwatch/pkg/metrics"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

// LocationSource resolves a driver's current position from the fleet
// backend.
type LocationSource interface {
	DriverLocation(ctx context.Context, driverID string) (geo.Coordinate, error)
}

// Notifier delivers a created notification to the driver-facing channel.
type Notifier interface {
	Notify(ctx context.Context, record da.NotificationRecord) error
}

// Dispatcher decides which in-transit drivers are affected by high
// congestion at a camera and emits at most one open notification per
// (driver, camera) pair.
type Dispatcher struct {
	drivers       *datastore.DriverStore
	notifications *datastore.NotificationStore
	locations     LocationSource
	notifier      Notifier
	log           *zap.Logger
}

func NewDispatcher(drivers *datastore.DriverStore, notifications *datastore.NotificationStore,
	locations LocationSource, notifier Notifier, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		drivers:       drivers,
		notifications: notifications,
		locations:     locations,
		notifier:      notifier,
		log:           log,
	}
}

// NotifyCongestion is the entry point the analysis pool calls when a camera
// flips to high congestion.
func (d *Dispatcher) NotifyCongestion(ctx context.Context, camera da.CameraObservation) {
	affected := d.GetAffectedDrivers(ctx, camera)
	if len(affected) == 0 {
		d.log.Info("no drivers affected by congestion", zap.String("camera_id", camera.ID))
		return
	}
	d.SendNotification(ctx, affected, camera.ID)
}

// GetAffectedDrivers returns every active session whose route passes within
// the proximity threshold of the camera and whose driver has not yet passed
// it. The driver's location is refreshed from the fleet backend before the
// directional test; a driver whose location cannot be fetched is skipped.
func (d *Dispatcher) GetAffectedDrivers(ctx context.Context, camera da.CameraObservation) []da.ActiveDriverSession {
	cameraPoint := geo.NewCoordinate(camera.Lat, camera.Lng)

	var affected []da.ActiveDriverSession
	for _, driver := range d.drivers.Load() {
		route := geo.DecodeRoutePolyline(driver.Polyline)
		if route == nil {
			d.log.Warn("active session has undecodable route polyline",
				zap.String("driver_id", driver.DriverID))
			continue
		}

		if !geo.IsCameraNearRoute(route, cameraPoint) {
			continue
		}

		location, err := d.locations.DriverLocation(ctx, driver.DriverID)
		if err != nil {
			d.log.Error("fetching driver location",
				zap.String("driver_id", driver.DriverID), zap.Error(err))
			continue
		}
		if updated, err := d.drivers.UpdateLocation(driver.DriverID, location.Lat, location.Lon); err == nil {
			driver = updated
		}

		if geo.IsAheadOnRoute(route, location, cameraPoint) {
			affected = append(affected, driver)
		}
	}
	return affected
}

// SendNotification creates one open notification per affected driver,
// skipping pairs that already have one, and pushes each created record to
// the notifier. Delivery failures are logged per driver and never abort the
// batch.
func (d *Dispatcher) SendNotification(ctx context.Context, affected []da.ActiveDriverSession, cameraID string) {
	now := util.SGTime()

	for _, driver := range affected {
		record := da.NotificationRecord{
			DriverID:  driver.DriverID,
			CameraID:  cameraID,
			Message:   fmt.Sprintf("Rerouting due to congestion at camera %s", cameraID),
			Timestamp: now,
			Seen:      false,
		}

		created, err := d.notifications.Ensure(record)
		if err != nil {
			d.log.Error("storing notification",
				zap.String("driver_id", driver.DriverID), zap.Error(err))
			continue
		}
		if !created {
			d.log.Info("notification already open for camera",
				zap.String("driver_id", driver.DriverID), zap.String("camera_id", cameraID))
			continue
		}
		metrics.NotificationsSent.Inc()

		if d.notifier == nil {
			continue
		}
		if err := d.notifier.Notify(ctx, record); err != nil {
			d.log.Error("delivering notification",
				zap.String("driver_id", driver.DriverID), zap.Error(err))
		}
	}
}
