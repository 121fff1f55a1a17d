package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supmap/navigation/internal/lib/geo"
)

// Encoded polyline for (38.5,-120.2) (40.7,-120.95) (43.252,-126.453).
const testPolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func directionsOK() string {
	return `{
		"status": "OK",
		"routes": [
			{
				"overview_polyline": {"points": "` + testPolyline + `"},
				"legs": [{"distance": {"value": 431000}, "duration": {"value": 14400}}]
			},
			{
				"overview_polyline": {"points": "` + testPolyline + `"},
				"legs": [{"distance": {"value": 455000}, "duration": {"value": 15800}}]
			}
		]
	}`
}

func TestRoutes_Success(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"origin":       r.URL.Query().Get("origin"),
			"destination":  r.URL.Query().Get("destination"),
			"avoid":        r.URL.Query().Get("avoid"),
			"alternatives": r.URL.Query().Get("alternatives"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(directionsOK()))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	routes, err := client.Routes(context.Background(), "48.85,2.35", "45.76,4.83", true)
	require.NoError(t, err)
	require.Len(t, routes, 2)

	assert.Equal(t, "48.85,2.35", gotQuery["origin"])
	assert.Equal(t, "45.76,4.83", gotQuery["destination"])
	assert.Equal(t, "tolls", gotQuery["avoid"])
	assert.Equal(t, "true", gotQuery["alternatives"])

	assert.Equal(t, 431000, routes[0].DistanceMeters)
	assert.Equal(t, 14400, routes[0].DurationSeconds)
	assert.Equal(t, testPolyline, routes[0].EncodedPolyline)
	require.Len(t, routes[0].Points, 3)
	assert.InDelta(t, 38.5, routes[0].Points[0].Lat, 0.001)
}

func TestRoutes_NoTollAvoidanceParam(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("avoid"))
		w.Write([]byte(directionsOK()))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	_, err := client.Routes(context.Background(), "a", "b", false)
	require.NoError(t, err)
}

func TestRoutes_ZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	_, err := client.Routes(context.Background(), "a", "b", true)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestRoutes_APIStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "bad key", "routes": [{}]}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	_, err := client.Routes(context.Background(), "a", "b", true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRoute)
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestRoutes_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-key", server.URL)
	_, err := client.Routes(context.Background(), "a", "b", true)
	assert.Error(t, err)
}

func TestFormatPoint(t *testing.T) {
	assert.Equal(t, "48.856600,2.352200", FormatPoint(geo.Point{Lat: 48.8566, Lng: 2.3522}))
}
