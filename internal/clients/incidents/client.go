// Package incidents is the read-only client for the incident store
// collaborator.
package incidents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/supmap/navigation/internal/lib/incident"
)

const requestTimeout = 5 * time.Second

// Client queries incident snapshots over HTTP. Queries are authenticated
// by a bearer token forwarded from the caller; the client never holds
// credentials of its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an incident store client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// ListPending returns the current pending incidents.
func (c *Client) ListPending(ctx context.Context, token string) ([]incident.Incident, error) {
	return c.list(ctx, token, "/incidents/pending")
}

// ListActive returns the current active incidents.
func (c *Client) ListActive(ctx context.Context, token string) ([]incident.Incident, error) {
	return c.list(ctx, token, "/incidents/active")
}

func (c *Client) list(ctx context.Context, token, path string) ([]incident.Incident, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create incident request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch incidents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("incident store error %d: %s", resp.StatusCode, string(body))
	}

	// The store answers either with a bare array or with an envelope
	// {"incidents": [...]} depending on the endpoint generation.
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read incident response: %w", err)
	}

	var incidents []incident.Incident
	if err := json.Unmarshal(data, &incidents); err == nil {
		return incidents, nil
	}

	var envelope struct {
		Incidents []incident.Incident `json:"incidents"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("unexpected incident payload shape: %w", err)
	}

	return envelope.Incidents, nil
}
