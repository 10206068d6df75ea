package controllers

import (
	"context"

	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/bussin-buses/trafficwatch/pkg/http/usecases"
)

type JourneyService interface {
	StartJourney(ctx context.Context, driverID, scheduleID string) (usecases.StartJourneyResult, error)
	StopJourney(ctx context.Context, driverID, scheduleID string) error
}

type RerouteService interface {
	Reroute(ctx context.Context, driverID string) (usecases.RerouteResult, error)
}

type RouteService interface {
	GetRoute(ctx context.Context, origin, destination string) (usecases.RouteResult, error)
	DecodeRoute(encoded string) ([]geo.Coordinate, error)
}

type NotificationService interface {
	NotifyDriver(ctx context.Context, record da.NotificationRecord) (bool, error)
	ListForDriver(driverID string) []da.NotificationRecord
	MarkSeen(driverID, cameraID string) error
}

type DriverService interface {
	DriverLocation(ctx context.Context, driverID string) (geo.Coordinate, error)
}

type CongestionService interface {
	Snapshot() []da.CameraObservation
	Congested() []da.CameraObservation
}
