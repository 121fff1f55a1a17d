// Package notify is the client for the notification sink collaborator,
// which pushes messages to connected clients.
//
// Delivery is best-effort: the sink acknowledges acceptance, not delivery,
// and the core never retries. Callers mark their dedup key before
// dispatching, so a failed dispatch is not retried either — that is the
// accepted at-most-once trade-off.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 5 * time.Second

// Payload is the structured data attached to a push notification.
type Payload struct {
	IncidentID  int64   `json:"incidentId"`
	ItineraryID int64   `json:"itineraryId,omitempty"`
	Distance    float64 `json:"distance"`
}

// Client posts notifications to the sink over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a notification sink client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// NotifyContribute pushes a proximity alert to the user.
func (c *Client) NotifyContribute(ctx context.Context, token string, userID int64, message string, payload Payload) error {
	return c.post(ctx, token, "/notify/notify-contribute", userID, message, payload)
}

// NotifyRecalculate pushes a route-recalculation suggestion to the user.
func (c *Client) NotifyRecalculate(ctx context.Context, token string, userID int64, message string, payload Payload) error {
	return c.post(ctx, token, "/notify/notify-recalculate", userID, message, payload)
}

func (c *Client) post(ctx context.Context, token, path string, userID int64, message string, payload Payload) error {
	body, err := json.Marshal(map[string]any{
		"userId":  userID,
		"message": message,
		"data":    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to dispatch notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification sink error %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
