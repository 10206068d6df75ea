package traffic

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLocations struct {
	positions map[string]geo.Coordinate
}

func (f *fakeLocations) DriverLocation(ctx context.Context, driverID string) (geo.Coordinate, error) {
	pos, ok := f.positions[driverID]
	if !ok {
		return geo.Coordinate{}, errors.New("backend unavailable")
	}
	return pos, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	records []da.NotificationRecord
}

func (f *fakeNotifier) Notify(ctx context.Context, record da.NotificationRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

// testRoute is an east-west route at latitude 1.3 passing the camera at
// longitude 103.9 around its tenth vertex.
func testRoute() []geo.Coordinate {
	route := make([]geo.Coordinate, 0, 21)
	for i := 0; i <= 20; i++ {
		route = append(route, geo.NewCoordinate(1.3, 103.89+float64(i)*0.001))
	}
	return route
}

func TestNotifyCongestion(t *testing.T) {
	dir := t.TempDir()
	drivers := datastore.NewDriverStore(filepath.Join(dir, "active_drivers.json"), zap.NewNop())
	notifications := datastore.NewNotificationStore(filepath.Join(dir, "notifications.json"), zap.NewNop())

	onRoute := geo.EncodeRoutePolyline(testRoute())
	farRoute := geo.EncodeRoutePolyline([]geo.Coordinate{
		geo.NewCoordinate(1.5, 103.7),
		geo.NewCoordinate(1.51, 103.71),
	})

	require.NoError(t, drivers.Save([]da.ActiveDriverSession{
		{DriverID: "approaching", ScheduleID: "s1", Polyline: onRoute,
			CurrentLocation: []float64{1.3, 103.895}, Destination: "1.3,103.91"},
		{DriverID: "passed", ScheduleID: "s2", Polyline: onRoute,
			CurrentLocation: []float64{1.3, 103.905}, Destination: "1.3,103.91"},
		{DriverID: "elsewhere", ScheduleID: "s3", Polyline: farRoute,
			CurrentLocation: []float64{1.5, 103.7}, Destination: "1.51,103.71"},
		{DriverID: "unreachable", ScheduleID: "s4", Polyline: onRoute,
			CurrentLocation: []float64{1.3, 103.892}, Destination: "1.3,103.91"},
	}))

	locations := &fakeLocations{positions: map[string]geo.Coordinate{
		"approaching": geo.NewCoordinate(1.3, 103.895),
		"passed":      geo.NewCoordinate(1.3, 103.905),
		"elsewhere":   geo.NewCoordinate(1.5, 103.7),
		// "unreachable" has no position: its location fetch fails
	}}
	notifier := &fakeNotifier{}
	dispatcher := NewDispatcher(drivers, notifications, locations, notifier, zap.NewNop())

	camera := da.CameraObservation{
		ID:  "1701",
		Lat: 1.3 + 50/111194.93,
		Lng: 103.9,
	}

	dispatcher.NotifyCongestion(context.Background(), camera)

	// only the driver approaching the camera gets a notification
	records := notifications.ListForDriver("approaching")
	require.Len(t, records, 1)
	require.Equal(t, "1701", records[0].CameraID)
	require.Equal(t, "Rerouting due to congestion at camera 1701", records[0].Message)
	require.False(t, records[0].Seen)

	require.Empty(t, notifications.ListForDriver("passed"))
	require.Empty(t, notifications.ListForDriver("elsewhere"))
	require.Empty(t, notifications.ListForDriver("unreachable"))

	require.Len(t, notifier.records, 1)
	require.Equal(t, "approaching", notifier.records[0].DriverID)

	// a second cycle with the pair still open stays silent
	dispatcher.NotifyCongestion(context.Background(), camera)
	require.Len(t, notifications.ListForDriver("approaching"), 1)
	require.Len(t, notifier.records, 1)

	// once the driver acknowledges, the next cycle may notify again
	marked, err := notifications.MarkSeen("approaching", "1701")
	require.NoError(t, err)
	require.True(t, marked)

	dispatcher.NotifyCongestion(context.Background(), camera)
	require.Len(t, notifications.ListForDriver("approaching"), 2)
	require.Len(t, notifier.records, 2)
}

func TestGetAffectedDriversRefreshesLocation(t *testing.T) {
	dir := t.TempDir()
	drivers := datastore.NewDriverStore(filepath.Join(dir, "active_drivers.json"), zap.NewNop())
	notifications := datastore.NewNotificationStore(filepath.Join(dir, "notifications.json"), zap.NewNop())

	onRoute := geo.EncodeRoutePolyline(testRoute())
	require.NoError(t, drivers.Save([]da.ActiveDriverSession{
		// stale stored location says the driver is past the camera
		{DriverID: "d1", Polyline: onRoute, CurrentLocation: []float64{1.3, 103.905}},
	}))

	// the backend says the driver is actually still approaching
	locations := &fakeLocations{positions: map[string]geo.Coordinate{
		"d1": geo.NewCoordinate(1.3, 103.893),
	}}
	dispatcher := NewDispatcher(drivers, notifications, locations, nil, zap.NewNop())

	camera := da.CameraObservation{ID: "1701", Lat: 1.3 + 50/111194.93, Lng: 103.9}
	affected := dispatcher.GetAffectedDrivers(context.Background(), camera)

	require.Len(t, affected, 1)
	require.Equal(t, "d1", affected[0].DriverID)

	session, ok := drivers.Find("d1")
	require.True(t, ok)
	require.InDelta(t, 103.893, session.CurrentLocation[1], 1e-4)
}

func TestGetAffectedDriversUndecodablePolyline(t *testing.T) {
	dir := t.TempDir()
	drivers := datastore.NewDriverStore(filepath.Join(dir, "active_drivers.json"), zap.NewNop())
	notifications := datastore.NewNotificationStore(filepath.Join(dir, "notifications.json"), zap.NewNop())

	require.NoError(t, drivers.Save([]da.ActiveDriverSession{
		{DriverID: "d1", Polyline: "_", CurrentLocation: []float64{1.3, 103.9}},
	}))

	dispatcher := NewDispatcher(drivers, notifications,
		&fakeLocations{positions: map[string]geo.Coordinate{}}, nil, zap.NewNop())

	camera := da.CameraObservation{ID: "1701", Lat: 1.3, Lng: 103.9}
	require.Empty(t, dispatcher.GetAffectedDrivers(context.Background(), camera))
}
