package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	http_router "github.com/bussin-buses/trafficwatch/pkg/http/router"
	"github.com/bussin-buses/trafficwatch/pkg/http/router/controllers"
	http_server "github.com/bussin-buses/trafficwatch/pkg/http/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use wires the controllers into the router and starts serving in the
// background.
func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,
	hub *controllers.NotificationHub,

	useRateLimit bool,
	journeyService controllers.JourneyService,
	rerouteService controllers.RerouteService,
	routeService controllers.RouteService,
	notificationService controllers.NotificationService,
	driverService controllers.DriverService,
	congestionService controllers.CongestionService,
) (*Server, error) {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("API_TIMEOUT", "1000s")

	config := http_server.Config{
		Port:    viper.GetInt("API_PORT"),
		Timeout: viper.GetDuration("API_TIMEOUT"),
	}

	server := http_router.NewAPI(log, hub)

	g := errgroup.Group{}

	g.Go(func() error {
		return server.Run(
			ctx, config, log,
			useRateLimit, journeyService, rerouteService, routeService,
			notificationService, driverService, congestionService,
		)
	})

	return s, nil
}

// GracefulShutdown blocks until an interrupt or termination signal arrives.
func GracefulShutdown() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}
