// Package google wraps the Google Directions API, the external
// turn-by-turn routing provider.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/supmap/navigation/internal/lib/geo"
)

// ErrNoRoute is returned when the provider answers successfully but has no
// usable route between the requested endpoints. Callers must not conflate
// this with "no incidents affected" or with transport failures.
var ErrNoRoute = errors.New("routing provider returned no usable route")

const defaultBaseURL = "https://maps.googleapis.com/maps/api/directions"

// Outbound calls to the provider time out after the standard collaborator
// deadline; a timeout is an operation failure, not an empty result.
const requestTimeout = 5 * time.Second

// Route is one routing alternative returned by the provider.
type Route struct {
	Points          []geo.Point
	EncodedPolyline string
	DistanceMeters  int
	DurationSeconds int
}

// Client calls the Directions API over HTTP.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Directions client with the standard timeout.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

// NewClientWithBaseURL creates a client against a non-default endpoint,
// used by tests to point at a local double.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Routes requests driving routes from origin to destination and decodes
// each alternative's overview polyline into travel-ordered points.
// Alternatives are always requested; the caller decides whether to use the
// first route or all of them.
func (c *Client) Routes(ctx context.Context, origin, destination string, avoidTolls bool) ([]Route, error) {
	params := url.Values{}
	params.Set("origin", origin)
	params.Set("destination", destination)
	params.Set("mode", "driving")
	params.Set("overview", "full")
	params.Set("alternatives", "true")
	params.Set("key", c.apiKey)
	if avoidTolls {
		params.Set("avoid", "tolls")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/json?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create directions request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call directions API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("directions API error %d: %s", resp.StatusCode, string(body))
	}

	var response directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode directions response: %w", err)
	}

	if response.Status == "ZERO_RESULTS" || len(response.Routes) == 0 {
		return nil, ErrNoRoute
	}
	if response.Status != "OK" {
		return nil, fmt.Errorf("directions API status %s: %s", response.Status, response.ErrorMessage)
	}

	routes := make([]Route, 0, len(response.Routes))
	for _, r := range response.Routes {
		route, err := decodeRoute(r)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	return routes, nil
}

func decodeRoute(r directionsRoute) (Route, error) {
	points, err := geo.DecodePolyline(r.OverviewPolyline.Points)
	if err != nil {
		return Route{}, fmt.Errorf("failed to decode route geometry: %w", err)
	}

	route := Route{
		Points:          points,
		EncodedPolyline: r.OverviewPolyline.Points,
	}
	if len(r.Legs) > 0 {
		route.DistanceMeters = r.Legs[0].Distance.Value
		route.DurationSeconds = r.Legs[0].Duration.Value
	}

	return route, nil
}

// FormatPoint renders a point as the "lat,lng" string the Directions API
// expects for origins and destinations.
func FormatPoint(p geo.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}

// Directions API response shapes (only the fields this client reads).

type directionsResponse struct {
	Status       string            `json:"status"`
	ErrorMessage string            `json:"error_message"`
	Routes       []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	OverviewPolyline struct {
		Points string `json:"points"`
	} `json:"overview_polyline"`
	Legs []struct {
		Distance struct {
			Value int `json:"value"`
		} `json:"distance"`
		Duration struct {
			Value int `json:"value"`
		} `json:"duration"`
	} `json:"legs"`
}
