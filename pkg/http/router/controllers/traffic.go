package controllers

import (
	"encoding/json"
	"net/http"

	helper "github.com/bussin-buses/trafficwatch/pkg/http/router/routerhelper"
	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type trafficAPI struct {
	journeyService      JourneyService
	rerouteService      RerouteService
	routeService        RouteService
	notificationService NotificationService
	driverService       DriverService
	congestionService   CongestionService
	log                 *zap.Logger
}

func New(journeyService JourneyService, rerouteService RerouteService, routeService RouteService,
	notificationService NotificationService, driverService DriverService,
	congestionService CongestionService, log *zap.Logger) *trafficAPI {
	return &trafficAPI{
		journeyService:      journeyService,
		rerouteService:      rerouteService,
		routeService:        routeService,
		notificationService: notificationService,
		driverService:       driverService,
		congestionService:   congestionService,
		log:                 log,
	}
}

func (api *trafficAPI) Routes(group *helper.RouteGroup) {
	group.POST("/start-journey", api.startJourney)
	group.POST("/stop-journey", api.stopJourney)
	group.GET("/reroute", api.reroute)
	group.GET("/get-route", api.getRoute)
	group.GET("/decode-route", api.decodeRoute)
	group.GET("/get-driver-location/:driverId", api.getDriverLocation)
	group.POST("/notify-driver", api.notifyDriver)
	group.GET("/get-notifications/:driverId", api.getNotifications)
	group.POST("/mark-notification-seen", api.markNotificationSeen)
	group.GET("/congestion", api.congestion)
}

func (api *trafficAPI) startJourney(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request startJourneyRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}

	validate := validator.New()
	if err := validate.Struct(request); err != nil {
		api.validationErrorResponse(w, r, validate, err)
		return
	}

	result, err := api.journeyService.StartJourney(r.Context(), request.DriverID, request.ScheduleID)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewStartJourneyResponse(result)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *trafficAPI) stopJourney(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request stopJourneyRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := r.Body.Close(); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}

	validate := validator.New()
	if err := validate.Struct(request); err != nil {
		api.validationErrorResponse(w, r, validate, err)
		return
	}

	if err := api.journeyService.StopJourney(r.Context(), request.DriverID, request.ScheduleID); err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": "journey stopped"}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *trafficAPI) congestion(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	observations := api.congestionService.Snapshot()
	if r.URL.Query().Get("level") == "high" {
		observations = api.congestionService.Congested()
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": NewCameraObservationResponses(observations)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
