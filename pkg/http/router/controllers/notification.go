package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
)

func (api *trafficAPI) notifyDriver(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request notifyDriverRequest
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

	inserted, err := api.notificationService.NotifyDriver(r.Context(), request.ToRecord())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	message := "notification recorded"
	if !inserted {
		message = "notification already pending"
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": message}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *trafficAPI) getNotifications(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	driverID := p.ByName("driverId")
	if driverID == "" {
		api.BadRequestResponse(w, r, errors.New("driverId is required"))
		return
	}

	records := api.notificationService.ListForDriver(driverID)

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": NewNotificationResponses(records)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *trafficAPI) markNotificationSeen(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request markNotificationSeenRequest
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

	if err := api.notificationService.MarkSeen(request.DriverID, request.CameraID); err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": "notification marked as seen"}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *trafficAPI) getDriverLocation(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	driverID := p.ByName("driverId")
	if driverID == "" {
		api.BadRequestResponse(w, r, errors.New("driverId is required"))
		return
	}

	location, err := api.driverService.DriverLocation(r.Context(), driverID)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": coordinateResponse{Lat: location.Lat, Lng: location.Lon}}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
