package controllers

import (
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/bussin-buses/trafficwatch/pkg/http/usecases"
)

type startJourneyRequest struct {
	DriverID   string `json:"driverId" validate:"required"`
	ScheduleID string `json:"scheduleId" validate:"required"`
}

type stopJourneyRequest struct {
	DriverID   string `json:"driverId" validate:"required"`
	ScheduleID string `json:"scheduleId" validate:"required"`
}

type coordinateResponse struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func newCoordinateResponses(coords []geo.Coordinate) []coordinateResponse {
	out := make([]coordinateResponse, 0, len(coords))
	for _, c := range coords {
		out = append(out, coordinateResponse{Lat: c.Lat, Lng: c.Lon})
	}
	return out
}

type congestedCameraResponse struct {
	CameraID        string             `json:"cameraId"`
	Lat             float64            `json:"lat"`
	Lng             float64            `json:"lng"`
	CongestionLevel da.CongestionLevel `json:"congestionLevel"`
}

func newCongestedCameraResponses(cameras []da.CameraObservation) []congestedCameraResponse {
	out := make([]congestedCameraResponse, 0, len(cameras))
	for _, cam := range cameras {
		level, _ := cam.LatestLevel()
		out = append(out, congestedCameraResponse{
			CameraID:        cam.ID,
			Lat:             cam.Lat,
			Lng:             cam.Lng,
			CongestionLevel: level,
		})
	}
	return out
}

type startJourneyResponse struct {
	Polyline         string                    `json:"polyline"`
	Duration         float64                   `json:"duration"`
	EtaMinutes       int                       `json:"etaMinutes"`
	DecodedRoute     []coordinateResponse      `json:"decodedRoute"`
	CongestedCameras []congestedCameraResponse `json:"congestedCameras"`
}

func NewStartJourneyResponse(result usecases.StartJourneyResult) startJourneyResponse {
	return startJourneyResponse{
		Polyline:         result.Polyline,
		Duration:         result.Duration,
		EtaMinutes:       result.EtaMinutes,
		DecodedRoute:     newCoordinateResponses(result.DecodedRoute),
		CongestedCameras: newCongestedCameraResponses(result.CongestedCameras),
	}
}

type routeResponse struct {
	Polyline     string               `json:"polyline"`
	Duration     float64              `json:"duration"`
	DecodedRoute []coordinateResponse `json:"decodedRoute"`
}

func NewRouteResponse(polyline string, duration float64, decoded []geo.Coordinate) routeResponse {
	return routeResponse{
		Polyline:     polyline,
		Duration:     duration,
		DecodedRoute: newCoordinateResponses(decoded),
	}
}

type notifyDriverRequest struct {
	DriverID  string `json:"driverId" validate:"required"`
	CameraID  string `json:"cameraId" validate:"required"`
	Message   string `json:"message" validate:"required"`
	Timestamp string `json:"timeStamp"`
	Seen      bool   `json:"seen"`
}

func (req notifyDriverRequest) ToRecord() da.NotificationRecord {
	return da.NotificationRecord{
		DriverID:  req.DriverID,
		CameraID:  req.CameraID,
		Message:   req.Message,
		Timestamp: req.Timestamp,
		Seen:      req.Seen,
	}
}

type markNotificationSeenRequest struct {
	DriverID string `json:"driverId" validate:"required"`
	CameraID string `json:"cameraId" validate:"required"`
}

type notificationResponse struct {
	DriverID  string `json:"driverId"`
	CameraID  string `json:"cameraId"`
	Message   string `json:"message"`
	Timestamp string `json:"timeStamp"`
	Seen      bool   `json:"seen"`
}

func NewNotificationResponse(record da.NotificationRecord) notificationResponse {
	return notificationResponse{
		DriverID:  record.DriverID,
		CameraID:  record.CameraID,
		Message:   record.Message,
		Timestamp: record.Timestamp,
		Seen:      record.Seen,
	}
}

func NewNotificationResponses(records []da.NotificationRecord) []notificationResponse {
	out := make([]notificationResponse, 0, len(records))
	for _, record := range records {
		out = append(out, NewNotificationResponse(record))
	}
	return out
}

type cameraObservationResponse struct {
	CameraID   string                `json:"cameraId"`
	Image      string                `json:"image"`
	Lat        float64               `json:"lat"`
	Lng        float64               `json:"lng"`
	Timestamps []da.CongestionSample `json:"timestamps"`
}

func NewCameraObservationResponses(observations []da.CameraObservation) []cameraObservationResponse {
	out := make([]cameraObservationResponse, 0, len(observations))
	for _, obs := range observations {
		out = append(out, cameraObservationResponse{
			CameraID:   obs.ID,
			Image:      obs.Image,
			Lat:        obs.Lat,
			Lng:        obs.Lng,
			Timestamps: obs.Timestamps,
		})
	}
	return out
}
