package fleet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bussin-buses/trafficwatch/pkg/geo"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

// Client is the REST boundary to the fleet backend, the relational store
// holding driver, schedule, journey and booking records. Every call is
// attempted exactly once; a 404 maps to the not-found error code.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Schedule is one scheduled journey for a driver. Pickup and Destination
// are location references resolved through LocationCoordinates.
type Schedule struct {
	DriverID       string `json:"driver_id"`
	ScheduleID     string `json:"schedule_id"`
	Pickup         string `json:"pickup"`
	Destination    string `json:"destination"`
	JourneyStarted bool   `json:"journey_started"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "fleet backend %s %s", method, path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return util.WrapErrorf(nil, util.ErrNotFound, "fleet backend %s %s: not found", method, path)
	case resp.StatusCode >= 300:
		return util.WrapErrorf(nil, util.ErrInternalServerError,
			"fleet backend %s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return util.WrapErrorf(err, util.ErrInternalServerError, "decoding fleet backend response")
	}
	return nil
}

// JourneySchedule fetches the schedule record binding a driver to a
// journey.
func (c *Client) JourneySchedule(ctx context.Context, driverID, scheduleID string) (Schedule, error) {
	var schedule Schedule
	path := fmt.Sprintf("/api/schedules/%s?driver_id=%s", scheduleID, driverID)
	if err := c.do(ctx, http.MethodGet, path, nil, &schedule); err != nil {
		return Schedule{}, err
	}
	return schedule, nil
}

type coordinatesPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationCoordinates resolves a named location reference to coordinates.
func (c *Client) LocationCoordinates(ctx context.Context, locationRef string) (geo.Coordinate, error) {
	var payload coordinatesPayload
	if err := c.do(ctx, http.MethodGet, "/api/locations/"+locationRef, nil, &payload); err != nil {
		return geo.Coordinate{}, err
	}
	return geo.NewCoordinate(payload.Latitude, payload.Longitude), nil
}

// DriverLocation returns the driver's current reported position.
func (c *Client) DriverLocation(ctx context.Context, driverID string) (geo.Coordinate, error) {
	var payload struct {
		CurrentLocation coordinatesPayload `json:"currentLocation"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/drivers/"+driverID+"/location", nil, &payload); err != nil {
		return geo.Coordinate{}, err
	}
	return geo.NewCoordinate(payload.CurrentLocation.Latitude, payload.CurrentLocation.Longitude), nil
}

// MarkJourneyStarted flags the schedule's journey as started.
func (c *Client) MarkJourneyStarted(ctx context.Context, scheduleID string) error {
	return c.do(ctx, http.MethodPost, "/api/schedules/"+scheduleID+"/start", nil, nil)
}

// UpdateScheduleETA records the journey's estimated arrival in minutes.
func (c *Client) UpdateScheduleETA(ctx context.Context, scheduleID string, etaMinutes int) error {
	body := map[string]int{"eta_minutes": etaMinutes}
	return c.do(ctx, http.MethodPost, "/api/schedules/"+scheduleID+"/eta", body, nil)
}

// DeleteJourney removes the journey record when a driver stops.
func (c *Client) DeleteJourney(ctx context.Context, scheduleID string) error {
	return c.do(ctx, http.MethodDelete, "/api/journeys/"+scheduleID, nil, nil)
}

// DeleteSchedule marks the schedule deleted.
func (c *Client) DeleteSchedule(ctx context.Context, scheduleID string) error {
	return c.do(ctx, http.MethodDelete, "/api/schedules/"+scheduleID, nil, nil)
}

// DeleteCommuterBookings drops all bookings attached to the schedule.
func (c *Client) DeleteCommuterBookings(ctx context.Context, scheduleID string) error {
	return c.do(ctx, http.MethodDelete, "/api/schedules/"+scheduleID+"/bookings", nil, nil)
}
