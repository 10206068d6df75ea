package usecases

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/fleet"
	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/bussin-buses/trafficwatch/pkg/routing"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFleet struct {
	schedule  fleet.Schedule
	locations map[string]geo.Coordinate
	positions map[string]geo.Coordinate

	journeyStartedCalls  int
	etaMinutes           int
	deletedJourneys      []string
	deletedSchedules     []string
	deletedBookings      []string
	scheduleLookupFailed bool
}

func (f *fakeFleet) JourneySchedule(ctx context.Context, driverID, scheduleID string) (fleet.Schedule, error) {
	if f.scheduleLookupFailed {
		return fleet.Schedule{}, util.WrapErrorf(nil, util.ErrNotFound, "schedule %s not found", scheduleID)
	}
	return f.schedule, nil
}

func (f *fakeFleet) LocationCoordinates(ctx context.Context, locationRef string) (geo.Coordinate, error) {
	loc, ok := f.locations[locationRef]
	if !ok {
		return geo.Coordinate{}, util.WrapErrorf(nil, util.ErrNotFound, "location %s not found", locationRef)
	}
	return loc, nil
}

func (f *fakeFleet) DriverLocation(ctx context.Context, driverID string) (geo.Coordinate, error) {
	pos, ok := f.positions[driverID]
	if !ok {
		return geo.Coordinate{}, util.WrapErrorf(nil, util.ErrNotFound, "driver %s not found", driverID)
	}
	return pos, nil
}

func (f *fakeFleet) MarkJourneyStarted(ctx context.Context, scheduleID string) error {
	f.journeyStartedCalls++
	return nil
}

func (f *fakeFleet) UpdateScheduleETA(ctx context.Context, scheduleID string, etaMinutes int) error {
	f.etaMinutes = etaMinutes
	return nil
}

func (f *fakeFleet) DeleteJourney(ctx context.Context, scheduleID string) error {
	f.deletedJourneys = append(f.deletedJourneys, scheduleID)
	return nil
}

func (f *fakeFleet) DeleteSchedule(ctx context.Context, scheduleID string) error {
	f.deletedSchedules = append(f.deletedSchedules, scheduleID)
	return nil
}

func (f *fakeFleet) DeleteCommuterBookings(ctx context.Context, scheduleID string) error {
	f.deletedBookings = append(f.deletedBookings, scheduleID)
	return nil
}

type fakeOptimizer struct {
	route      routing.Route
	err        error
	lastOrigin string
	lastDest   string
	lastAvoid  bool
}

func (f *fakeOptimizer) BuildAvoidanceAreas() []string { return nil }

func (f *fakeOptimizer) GetOptimisedRoute(ctx context.Context, origin, destination string, avoidCongestion bool) (routing.Route, error) {
	f.lastOrigin = origin
	f.lastDest = destination
	f.lastAvoid = avoidCongestion
	return f.route, f.err
}

func encodedTestRoute() string {
	return geo.EncodeRoutePolyline([]geo.Coordinate{
		geo.NewCoordinate(1.3, 103.89),
		geo.NewCoordinate(1.3, 103.9),
		geo.NewCoordinate(1.31, 103.91),
	})
}

func newJourneyFixture(t *testing.T) (*JourneyService, *fakeFleet, *fakeOptimizer,
	*datastore.DriverStore, *datastore.NotificationStore, *datastore.CongestionStore) {
	t.Helper()
	dir := t.TempDir()
	drivers := datastore.NewDriverStore(filepath.Join(dir, "active_drivers.json"), zap.NewNop())
	notifications := datastore.NewNotificationStore(filepath.Join(dir, "notifications.json"), zap.NewNop())
	congestion := datastore.NewCongestionStore(filepath.Join(dir, "congestion.json"), zap.NewNop())

	fleetBackend := &fakeFleet{
		schedule: fleet.Schedule{
			DriverID:    "d1",
			ScheduleID:  "s1",
			Pickup:      "pickup-point",
			Destination: "drop-off",
		},
		locations: map[string]geo.Coordinate{
			"pickup-point": geo.NewCoordinate(1.3, 103.89),
			"drop-off":     geo.NewCoordinate(1.31, 103.91),
		},
	}
	optimizer := &fakeOptimizer{route: routing.Route{Polyline: encodedTestRoute(), Duration: 95}}

	service := NewJourneyService(zap.NewNop(), fleetBackend, optimizer,
		drivers, notifications, congestion)
	return service, fleetBackend, optimizer, drivers, notifications, congestion
}

func TestStartJourney(t *testing.T) {
	service, fleetBackend, optimizer, drivers, _, congestion := newJourneyFixture(t)

	require.NoError(t, congestion.Save([]da.CameraObservation{
		{ID: "1701", Lat: 1.3 + 50/111194.93, Lng: 103.9, Timestamps: []da.CongestionSample{
			{CongestionLevel: da.CongestionHigh, Timestamp: "01/09/2026 08:00:00 AM"},
		}},
	}))

	result, err := service.StartJourney(context.Background(), "d1", "s1")
	require.NoError(t, err)

	require.Equal(t, 1, fleetBackend.journeyStartedCalls)
	require.True(t, optimizer.lastAvoid)
	require.Equal(t, "1.3,103.89", optimizer.lastOrigin)
	require.Equal(t, "1.31,103.91", optimizer.lastDest)

	// duration 95s rounds up to 2 minutes
	require.Equal(t, 2, result.EtaMinutes)
	require.Equal(t, 2, fleetBackend.etaMinutes)
	require.Len(t, result.DecodedRoute, 3)

	// the congested camera near the chosen route is reported back
	require.Len(t, result.CongestedCameras, 1)
	require.Equal(t, "1701", result.CongestedCameras[0].ID)

	session, ok := drivers.Find("d1")
	require.True(t, ok)
	require.Equal(t, "s1", session.ScheduleID)
	require.Equal(t, result.Polyline, session.Polyline)
	require.Equal(t, []float64{1.3, 103.89}, session.CurrentLocation)
	require.Equal(t, "1.31,103.91", session.Destination)
}

func TestStartJourneyAlreadyStarted(t *testing.T) {
	service, fleetBackend, _, _, _, _ := newJourneyFixture(t)
	fleetBackend.schedule.JourneyStarted = true

	_, err := service.StartJourney(context.Background(), "d1", "s1")

	var domainErr *util.Error
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, util.ErrConflict, domainErr.Code())
	require.Zero(t, fleetBackend.journeyStartedCalls)
}

func TestStartJourneyNoRoute(t *testing.T) {
	service, _, optimizer, drivers, _, _ := newJourneyFixture(t)
	optimizer.err = util.WrapErrorf(nil, util.ErrNotFound, "no route found")

	_, err := service.StartJourney(context.Background(), "d1", "s1")

	var domainErr *util.Error
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, util.ErrNotFound, domainErr.Code())
	_, ok := drivers.Find("d1")
	require.False(t, ok)
}

func TestStopJourney(t *testing.T) {
	service, fleetBackend, _, drivers, notifications, _ := newJourneyFixture(t)

	require.NoError(t, drivers.Upsert(da.ActiveDriverSession{DriverID: "d1", ScheduleID: "s1"}))
	_, err := notifications.Ensure(da.NotificationRecord{DriverID: "d1", CameraID: "1701"})
	require.NoError(t, err)

	require.NoError(t, service.StopJourney(context.Background(), "d1", "s1"))

	require.Equal(t, []string{"s1"}, fleetBackend.deletedJourneys)
	require.Equal(t, []string{"s1"}, fleetBackend.deletedSchedules)
	require.Equal(t, []string{"s1"}, fleetBackend.deletedBookings)

	_, ok := drivers.Find("d1")
	require.False(t, ok)
	require.Empty(t, notifications.ListForDriver("d1"))
}

func TestStopJourneyUnknownSchedule(t *testing.T) {
	service, fleetBackend, _, _, _, _ := newJourneyFixture(t)
	fleetBackend.scheduleLookupFailed = true

	err := service.StopJourney(context.Background(), "d1", "missing")

	var domainErr *util.Error
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, util.ErrNotFound, domainErr.Code())
	require.Empty(t, fleetBackend.deletedJourneys)
}
