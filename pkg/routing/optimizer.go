package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

// avoidanceOffsetDegrees is the half-width of the bounding box drawn around
// a congested camera, roughly 111 meters at the equator.
const avoidanceOffsetDegrees = 0.001

// Route is the provider's answer: an encoded path and a duration in
// seconds.
type Route struct {
	Polyline string
	Duration float64
}

// Optimizer wraps the external routing provider and biases its answers away
// from currently congested areas.
type Optimizer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	congestion *datastore.CongestionStore
	log        *zap.Logger
}

func NewOptimizer(baseURL, apiKey string, congestion *datastore.CongestionStore, log *zap.Logger) *Optimizer {
	return &Optimizer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		congestion: congestion,
		log:        log,
	}
}

// BuildAvoidanceAreas returns one bbox query segment per camera whose most
// recent observation is high congestion.
func (o *Optimizer) BuildAvoidanceAreas() []string {
	var areas []string
	for _, obs := range o.congestion.HighCongestion() {
		areas = append(areas, fmt.Sprintf("bbox:%s,%s,%s,%s",
			util.FormatDegree(obs.Lng-avoidanceOffsetDegrees),
			util.FormatDegree(obs.Lat-avoidanceOffsetDegrees),
			util.FormatDegree(obs.Lng+avoidanceOffsetDegrees),
			util.FormatDegree(obs.Lat+avoidanceOffsetDegrees)))
	}
	return areas
}

type routesResponse struct {
	Routes []struct {
		Sections []struct {
			Polyline string `json:"polyline"`
			Summary  struct {
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"sections"`
	} `json:"routes"`
}

// GetOptimisedRoute requests a car route between "lat,lng" origin and
// destination strings. With avoidCongestion set, current high-congestion
// bounding boxes are attached to the request. An empty provider answer is a
// not-found, not an internal error.
func (o *Optimizer) GetOptimisedRoute(ctx context.Context, origin, destination string, avoidCongestion bool) (Route, error) {
	query := url.Values{}
	query.Set("origin", origin)
	query.Set("destination", destination)
	query.Set("transportMode", "car")
	query.Set("return", "summary,polyline")
	if o.apiKey != "" {
		query.Set("apikey", o.apiKey)
	}
	if avoidCongestion {
		if areas := o.BuildAvoidanceAreas(); len(areas) > 0 {
			query.Set("avoid[areas]", strings.Join(areas, "|"))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		o.baseURL+"/v8/routes?"+query.Encode(), nil)
	if err != nil {
		return Route{}, err
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return Route{}, util.WrapErrorf(err, util.ErrInternalServerError,
			"requesting optimised route from %s to %s", origin, destination)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Route{}, util.WrapErrorf(nil, util.ErrInternalServerError,
			"routing provider returned status %d", resp.StatusCode)
	}

	var payload routesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Route{}, util.WrapErrorf(err, util.ErrInternalServerError,
			"decoding routing provider response")
	}

	if len(payload.Routes) == 0 || len(payload.Routes[0].Sections) == 0 {
		return Route{}, util.WrapErrorf(nil, util.ErrNotFound,
			"no route found from %s to %s", origin, destination)
	}

	section := payload.Routes[0].Sections[0]
	return Route{Polyline: section.Polyline, Duration: section.Summary.Duration}, nil
}
