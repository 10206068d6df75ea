package controllers

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (api *trafficAPI) reroute(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	driverID := r.URL.Query().Get("driverId")
	if driverID == "" {
		api.BadRequestResponse(w, r, errors.New("driverId is required"))
		return
	}

	result, err := api.rerouteService.Reroute(r.Context(), driverID)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": NewRouteResponse(result.Polyline, result.Duration, result.DecodedRoute)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *trafficAPI) getRoute(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	query := r.URL.Query()
	origin := query.Get("origin")
	destination := query.Get("destination")
	if origin == "" || destination == "" {
		api.BadRequestResponse(w, r, errors.New("origin and destination are required as lat,lng pairs"))
		return
	}

	result, err := api.routeService.GetRoute(r.Context(), origin, destination)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": NewRouteResponse(result.Polyline, result.Duration, result.DecodedRoute)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}

func (api *trafficAPI) decodeRoute(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	encoded := r.URL.Query().Get("polyline")
	if encoded == "" {
		api.BadRequestResponse(w, r, errors.New("polyline is required"))
		return
	}

	decoded, err := api.routeService.DecodeRoute(encoded)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK,
		envelope{"data": newCoordinateResponses(decoded)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
