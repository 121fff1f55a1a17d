// Package itineraries is the read-only client for the itinerary store
// collaborator.
package itineraries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/supmap/navigation/internal/lib/geo"
	"github.com/supmap/navigation/internal/lib/routing"
)

// ErrNotFound is returned when the referenced itinerary does not exist.
var ErrNotFound = errors.New("itinerary not found")

const requestTimeout = 5 * time.Second

// Itinerary is a read-only snapshot of a stored itinerary: the selected
// route geometry plus its endpoints. The itinerary store owns the record.
type Itinerary struct {
	ID            int64       `json:"id"`
	UserID        int64       `json:"user_id"`
	StartLocation string      `json:"start_location"`
	EndLocation   string      `json:"end_location"`
	RoutePoints   []geo.Point `json:"route_points"`
	Duration      int         `json:"duration"`
	Distance      int         `json:"distance"`
	TollFree      bool        `json:"toll_free"`
}

// Route returns the itinerary geometry in travel order.
func (it Itinerary) Route() routing.Route {
	return routing.Route(it.RoutePoints)
}

// Client fetches itineraries over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an itinerary store client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// GetByID fetches one itinerary. Returns ErrNotFound for unknown ids.
func (c *Client) GetByID(ctx context.Context, token string, id int64) (Itinerary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/itineraries/%d", c.baseURL, id), nil)
	if err != nil {
		return Itinerary{}, fmt.Errorf("failed to create itinerary request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Itinerary{}, fmt.Errorf("failed to fetch itinerary %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Itinerary{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Itinerary{}, fmt.Errorf("itinerary store error %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Itinerary Itinerary `json:"itinerary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Itinerary{}, fmt.Errorf("failed to decode itinerary response: %w", err)
	}

	return envelope.Itinerary, nil
}
