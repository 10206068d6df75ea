package usecases

import (
	"context"

	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/fleet"
	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/bussin-buses/trafficwatch/pkg/routing"
)

// RouteOptimizer is the congestion-aware routing boundary.
type RouteOptimizer interface {
	BuildAvoidanceAreas() []string
	GetOptimisedRoute(ctx context.Context, origin, destination string, avoidCongestion bool) (routing.Route, error)
}

// FleetBackend is the relational store for driver, schedule, journey and
// booking records, reached over REST.
type FleetBackend interface {
	JourneySchedule(ctx context.Context, driverID, scheduleID string) (fleet.Schedule, error)
	LocationCoordinates(ctx context.Context, locationRef string) (geo.Coordinate, error)
	DriverLocation(ctx context.Context, driverID string) (geo.Coordinate, error)
	MarkJourneyStarted(ctx context.Context, scheduleID string) error
	UpdateScheduleETA(ctx context.Context, scheduleID string, etaMinutes int) error
	DeleteJourney(ctx context.Context, scheduleID string) error
	DeleteSchedule(ctx context.Context, scheduleID string) error
	DeleteCommuterBookings(ctx context.Context, scheduleID string) error
}

// NotificationPusher delivers notification records to connected drivers.
type NotificationPusher interface {
	Notify(ctx context.Context, record da.NotificationRecord) error
}
