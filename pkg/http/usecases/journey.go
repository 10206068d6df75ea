package usecases

import (
	"context"
	"math"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/bussin-buses/trafficwatch/pkg/spatialindex"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

type StartJourneyResult struct {
	Polyline         string
	Duration         float64
	DecodedRoute     []geo.Coordinate
	EtaMinutes       int
	CongestedCameras []da.CameraObservation
}

// JourneyService owns the journey lifecycle: optimised route on start,
// session teardown and notification cleanup on stop.
type JourneyService struct {
	log           *zap.Logger
	fleet         FleetBackend
	optimizer     RouteOptimizer
	drivers       *datastore.DriverStore
	notifications *datastore.NotificationStore
	congestion    *datastore.CongestionStore
}

func NewJourneyService(log *zap.Logger, fleet FleetBackend, optimizer RouteOptimizer,
	drivers *datastore.DriverStore, notifications *datastore.NotificationStore,
	congestion *datastore.CongestionStore) *JourneyService {
	return &JourneyService{
		log:           log,
		fleet:         fleet,
		optimizer:     optimizer,
		drivers:       drivers,
		notifications: notifications,
		congestion:    congestion,
	}
}

func formatCoordinate(c geo.Coordinate) string {
	return util.FormatDegree(c.Lat) + "," + util.FormatDegree(c.Lon)
}

// StartJourney resolves the schedule, requests a congestion-avoiding route
// and registers the driver's active session. The response also lists the
// currently congested cameras the new route still passes, so the client can
// show them immediately.
func (js *JourneyService) StartJourney(ctx context.Context, driverID, scheduleID string) (StartJourneyResult, error) {
	schedule, err := js.fleet.JourneySchedule(ctx, driverID, scheduleID)
	if err != nil {
		return StartJourneyResult{}, err
	}
	if schedule.JourneyStarted {
		return StartJourneyResult{}, util.WrapErrorf(nil, util.ErrConflict,
			"journey for schedule %s has already started", scheduleID)
	}
	if err := js.fleet.MarkJourneyStarted(ctx, scheduleID); err != nil {
		return StartJourneyResult{}, err
	}

	origin, err := js.fleet.LocationCoordinates(ctx, schedule.Pickup)
	if err != nil {
		return StartJourneyResult{}, err
	}
	destination, err := js.fleet.LocationCoordinates(ctx, schedule.Destination)
	if err != nil {
		return StartJourneyResult{}, err
	}

	route, err := js.optimizer.GetOptimisedRoute(ctx,
		formatCoordinate(origin), formatCoordinate(destination), true)
	if err != nil {
		return StartJourneyResult{}, err
	}

	decoded := geo.DecodeRoutePolyline(route.Polyline)
	if decoded == nil {
		return StartJourneyResult{}, util.WrapErrorf(nil, util.ErrNotFound,
			"optimised route polyline could not be decoded")
	}

	session := da.ActiveDriverSession{
		DriverID:        driverID,
		ScheduleID:      scheduleID,
		Polyline:        route.Polyline,
		CurrentLocation: []float64{origin.Lat, origin.Lon},
		Destination:     formatCoordinate(destination),
	}
	if err := js.drivers.Upsert(session); err != nil {
		return StartJourneyResult{}, util.WrapErrorf(err, util.ErrInternalServerError,
			"registering active driver session")
	}

	etaMinutes := int(math.Ceil(util.SecondsToMinutes(route.Duration)))
	if err := js.fleet.UpdateScheduleETA(ctx, scheduleID, etaMinutes); err != nil {
		return StartJourneyResult{}, err
	}

	congested := spatialindex.NewCameraIndex(js.congestion.HighCongestion()).
		SearchNearRoute(decoded, geo.CameraProximityThresholdMeters)

	js.log.Info("journey started",
		zap.String("driver_id", driverID),
		zap.String("schedule_id", scheduleID),
		zap.Int("eta_minutes", etaMinutes),
		zap.Int("congested_cameras_on_route", len(congested)))

	return StartJourneyResult{
		Polyline:         route.Polyline,
		Duration:         route.Duration,
		DecodedRoute:     decoded,
		EtaMinutes:       etaMinutes,
		CongestedCameras: congested,
	}, nil
}

// StopJourney tears the journey down: backend records, the driver's open
// notifications and the active session.
func (js *JourneyService) StopJourney(ctx context.Context, driverID, scheduleID string) error {
	if _, err := js.fleet.JourneySchedule(ctx, driverID, scheduleID); err != nil {
		return err
	}
	if err := js.fleet.DeleteJourney(ctx, scheduleID); err != nil {
		return err
	}
	if err := js.fleet.DeleteSchedule(ctx, scheduleID); err != nil {
		return err
	}
	if err := js.fleet.DeleteCommuterBookings(ctx, scheduleID); err != nil {
		return err
	}
	if err := js.notifications.RemoveForDriver(driverID); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "removing driver notifications")
	}
	if err := js.drivers.Remove(driverID); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "removing active driver session")
	}

	js.log.Info("journey stopped",
		zap.String("driver_id", driverID), zap.String("schedule_id", scheduleID))
	return nil
}
