package main

import (
	"context"
	"path/filepath"

	"github.com/bussin-buses/trafficwatch/pkg/camera"
	"github.com/bussin-buses/trafficwatch/pkg/cv"
	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	"github.com/bussin-buses/trafficwatch/pkg/fleet"
	"github.com/bussin-buses/trafficwatch/pkg/http"
	"github.com/bussin-buses/trafficwatch/pkg/http/router/controllers"
	"github.com/bussin-buses/trafficwatch/pkg/http/usecases"
	"github.com/bussin-buses/trafficwatch/pkg/logger"
	"github.com/bussin-buses/trafficwatch/pkg/routing"
	"github.com/bussin-buses/trafficwatch/pkg/traffic"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	if err := util.ReadConfig(); err != nil {
		logger.Warn("no config file found, using defaults and environment", zap.Error(err))
	}

	viper.SetDefault("DATA_DIR", "./data")
	viper.SetDefault("IMAGES_DIR", "./data/images")
	viper.SetDefault("CAMERA_FEED_URL", "https://api.data.gov.sg/v1/transport/traffic-images")
	viper.SetDefault("ROUTING_API_URL", "https://router.hereapi.com")
	viper.SetDefault("FLEET_API_URL", "http://localhost:3000")
	viper.SetDefault("PYTHON_PATH", "python3")
	viper.SetDefault("CV_SCRIPT", "./scripts/vehicle_detection.py")
	viper.SetDefault("UPDATE_INTERVAL", "3m")

	dataDir := viper.GetString("DATA_DIR")
	imagesDir := viper.GetString("IMAGES_DIR")

	congestionStore := datastore.NewCongestionStore(filepath.Join(dataDir, "congestion_data.json"), logger)
	driverStore := datastore.NewDriverStore(filepath.Join(dataDir, "active_drivers.json"), logger)
	notificationStore := datastore.NewNotificationStore(filepath.Join(dataDir, "notifications.json"), logger)

	fleetClient := fleet.NewClient(viper.GetString("FLEET_API_URL"), logger)
	optimizer := routing.NewOptimizer(viper.GetString("ROUTING_API_URL"),
		viper.GetString("ROUTING_API_KEY"), congestionStore, logger)
	cameraClient := camera.NewClient(viper.GetString("CAMERA_FEED_URL"), imagesDir, logger)
	detector := cv.NewPythonDetector(viper.GetString("PYTHON_PATH"), viper.GetString("CV_SCRIPT"), logger)

	hub := controllers.NewNotificationHub(logger)

	dispatcher := traffic.NewDispatcher(driverStore, notificationStore, fleetClient, hub, logger)
	analysis := traffic.NewAnalysisService(detector, congestionStore, dispatcher, imagesDir,
		traffic.DefaultAnalysisConcurrency(), logger)
	scheduler := traffic.NewScheduler(cameraClient, congestionStore, analysis,
		viper.GetDuration("UPDATE_INTERVAL"), logger)

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}

	scheduler.Start(ctx)

	api := http.NewServer(logger)

	journeyService := usecases.NewJourneyService(logger, fleetClient, optimizer,
		driverStore, notificationStore, congestionStore)
	rerouteService := usecases.NewRerouteService(logger, fleetClient, optimizer, driverStore)
	routeService := usecases.NewRouteService(logger, optimizer)
	notificationService := usecases.NewNotificationService(logger, notificationStore, hub)
	driverService := usecases.NewDriverService(logger, fleetClient, driverStore)
	congestionService := usecases.NewCongestionService(logger, congestionStore)

	api.Use(ctx, logger, hub, false,
		journeyService, rerouteService, routeService,
		notificationService, driverService, congestionService)

	signal := http.GracefulShutdown()

	logger.Info("TrafficWatch server stopped", zap.String("signal", signal.String()))
	cleanup()
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
