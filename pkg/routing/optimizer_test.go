package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bussin-buses/trafficwatch/pkg/datastore"
	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCongestionStore(t *testing.T, observations []da.CameraObservation) *datastore.CongestionStore {
	t.Helper()
	store := datastore.NewCongestionStore(filepath.Join(t.TempDir(), "congestion.json"), zap.NewNop())
	require.NoError(t, store.Save(observations))
	return store
}

func highCamera(id string, lat, lng float64) da.CameraObservation {
	return da.CameraObservation{
		ID:  id,
		Lat: lat,
		Lng: lng,
		Timestamps: []da.CongestionSample{
			{CongestionLevel: da.CongestionHigh, Timestamp: "01/09/2026 08:00:00 AM"},
		},
	}
}

func TestBuildAvoidanceAreas(t *testing.T) {
	store := newCongestionStore(t, []da.CameraObservation{
		highCamera("1001", 1.3, 103.9),
		{ID: "1002", Lat: 1.35, Lng: 103.95, Timestamps: []da.CongestionSample{
			{CongestionLevel: da.CongestionLow, Timestamp: "01/09/2026 08:00:00 AM"},
		}},
	})
	optimizer := NewOptimizer("http://localhost", "key", store, zap.NewNop())

	areas := optimizer.BuildAvoidanceAreas()

	// west,south|east,north corners, 0.001 degrees around the camera
	require.Equal(t, []string{"bbox:103.899,1.299,103.901,1.301"}, areas)
}

func TestBuildAvoidanceAreasNoCongestion(t *testing.T) {
	store := newCongestionStore(t, []da.CameraObservation{})
	optimizer := NewOptimizer("http://localhost", "key", store, zap.NewNop())
	require.Empty(t, optimizer.BuildAvoidanceAreas())
}

func TestGetOptimisedRoute(t *testing.T) {
	store := newCongestionStore(t, []da.CameraObservation{highCamera("1001", 1.3, 103.9)})

	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v8/routes", r.URL.Path)
		query := r.URL.Query()
		gotQuery = map[string]string{
			"origin":        query.Get("origin"),
			"destination":   query.Get("destination"),
			"transportMode": query.Get("transportMode"),
			"return":        query.Get("return"),
			"apikey":        query.Get("apikey"),
			"avoid[areas]":  query.Get("avoid[areas]"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"routes":[{"sections":[{"polyline":"abcdef","summary":{"duration":312}}]}]}`))
	}))
	defer server.Close()

	optimizer := NewOptimizer(server.URL, "secret", store, zap.NewNop())
	route, err := optimizer.GetOptimisedRoute(context.Background(), "1.3,103.89", "1.31,103.92", true)
	require.NoError(t, err)

	require.Equal(t, "abcdef", route.Polyline)
	require.Equal(t, 312.0, route.Duration)
	require.Equal(t, map[string]string{
		"origin":        "1.3,103.89",
		"destination":   "1.31,103.92",
		"transportMode": "car",
		"return":        "summary,polyline",
		"apikey":        "secret",
		"avoid[areas]":  "bbox:103.899,1.299,103.901,1.301",
	}, gotQuery)
}

func TestGetOptimisedRouteWithoutAvoidance(t *testing.T) {
	store := newCongestionStore(t, []da.CameraObservation{highCamera("1001", 1.3, 103.9)})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.False(t, r.URL.Query().Has("avoid[areas]"))
		_, _ = w.Write([]byte(`{"routes":[{"sections":[{"polyline":"abc","summary":{"duration":60}}]}]}`))
	}))
	defer server.Close()

	optimizer := NewOptimizer(server.URL, "secret", store, zap.NewNop())
	_, err := optimizer.GetOptimisedRoute(context.Background(), "1.3,103.89", "1.31,103.92", false)
	require.NoError(t, err)
}

func TestGetOptimisedRouteNoRoute(t *testing.T) {
	store := newCongestionStore(t, []da.CameraObservation{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"routes":[]}`))
	}))
	defer server.Close()

	optimizer := NewOptimizer(server.URL, "", store, zap.NewNop())
	_, err := optimizer.GetOptimisedRoute(context.Background(), "1.3,103.89", "1.31,103.92", true)

	var domainErr *util.Error
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, util.ErrNotFound, domainErr.Code())
}

func TestGetOptimisedRouteProviderError(t *testing.T) {
	store := newCongestionStore(t, []da.CameraObservation{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	optimizer := NewOptimizer(server.URL, "", store, zap.NewNop())
	_, err := optimizer.GetOptimisedRoute(context.Background(), "1.3,103.89", "1.31,103.92", true)

	var domainErr *util.Error
	require.True(t, errors.As(err, &domainErr))
	require.Equal(t, util.ErrInternalServerError, domainErr.Code())
}
