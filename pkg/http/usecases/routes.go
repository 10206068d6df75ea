package usecases

import (
	"context"

	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

type RouteResult struct {
	Polyline     string
	Duration     float64
	DecodedRoute []geo.Coordinate
}

// RouteService answers ad-hoc routing queries that are not tied to an
// active journey.
type RouteService struct {
	log       *zap.Logger
	optimizer RouteOptimizer
}

func NewRouteService(log *zap.Logger, optimizer RouteOptimizer) *RouteService {
	return &RouteService{log: log, optimizer: optimizer}
}

// GetRoute computes a congestion-avoiding route between two "lat,lon"
// coordinate strings.
func (rs *RouteService) GetRoute(ctx context.Context, origin, destination string) (RouteResult, error) {
	route, err := rs.optimizer.GetOptimisedRoute(ctx, origin, destination, true)
	if err != nil {
		return RouteResult{}, err
	}

	decoded := geo.DecodeRoutePolyline(route.Polyline)
	if decoded == nil {
		return RouteResult{}, util.WrapErrorf(nil, util.ErrNotFound,
			"optimised route polyline could not be decoded")
	}

	return RouteResult{
		Polyline:     route.Polyline,
		Duration:     route.Duration,
		DecodedRoute: decoded,
	}, nil
}

// DecodeRoute expands an encoded polyline into coordinates.
func (rs *RouteService) DecodeRoute(encoded string) ([]geo.Coordinate, error) {
	decoded := geo.DecodeRoutePolyline(encoded)
	if decoded == nil {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "polyline could not be decoded")
	}
	return decoded, nil
}
