package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/levelgym/internal/models"
)

// Client talks to the LevelGym state endpoints over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the LevelGym server. apiKey is sent
// as X-API-Key on the write routes.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// FetchState downloads the server's current snapshot envelope.
func (c *Client) FetchState(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/api/v1/state", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching state: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("state request failed (status %d): %s", resp.StatusCode, body)
	}
	return body, nil
}

// PushState PUTs a snapshot to the server, replacing its state, and returns
// the stats the server reports afterwards. Retries up to 3 times with
// exponential backoff; 4xx responses are not retried.
func (c *Client) PushState(ctx context.Context, data []byte) (models.UserStats, error) {
	var stats models.UserStats
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff << uint(attempt-1)):
			case <-ctx.Done():
				return stats, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.serverURL+"/api/v1/state", bytes.NewReader(data))
		if err != nil {
			return stats, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(body, &stats); err != nil {
				return stats, fmt.Errorf("decoding stats: %w", err)
			}
			return stats, nil
		case resp.StatusCode < 500:
			return stats, fmt.Errorf("push rejected (status %d): %s", resp.StatusCode, body)
		}
		lastErr = fmt.Errorf("push failed (status %d): %s", resp.StatusCode, body)
	}

	return stats, fmt.Errorf("after 3 attempts: %w", lastErr)
}
