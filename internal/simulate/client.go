package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	service "github.com/okian/wpr/internal/app"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
)

// Client talks to the progress HTTP API.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{base: baseURL, http: &http.Client{Timeout: timeout}}
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: %d", ErrUnhealthy, status)
	}
	return nil
}

// Configure creates the athlete with default settings.
func (c *Client) Configure(ctx context.Context, id string) error {
	return c.expect(ctx, http.MethodPut, "/athletes/"+id, service.ProfileSettings{}, http.StatusOK)
}

// SetBaseline posts the athlete baseline.
func (c *Client) SetBaseline(ctx context.Context, id string, b service.Baseline) error {
	return c.expect(ctx, http.MethodPost, "/athletes/"+id+"/baseline", b, http.StatusOK)
}

// Submit posts a measurement and reports whether it was a duplicate.
func (c *Client) Submit(ctx context.Context, m model.Measurement) (bool, error) { //nolint:gocritic // hugeParam
	var ack ackResponse
	status, err := c.do(ctx, http.MethodPost, "/measurements", m, &ack)
	if err != nil {
		return false, err
	}
	switch status {
	case http.StatusAccepted:
		return false, nil
	case http.StatusOK:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d submitting %s", ErrUnexpectedStatus, status, m.ID)
	}
}

// Leaderboard fetches the top n entries.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]types.Entry, error) {
	var entries []types.Entry
	status, err := c.do(ctx, http.MethodGet, "/leaderboard?limit="+strconv.Itoa(n), nil, &entries)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: %d fetching leaderboard", ErrUnexpectedStatus, status)
	}
	return entries, nil
}

// QueueLength reads queue_length from GET /stats.
func (c *Client) QueueLength(ctx context.Context) (int, error) {
	var stats struct {
		QueueLength int `json:"queue_length"`
	}
	status, err := c.do(ctx, http.MethodGet, "/stats", nil, &stats)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("%w: %d fetching stats", ErrUnexpectedStatus, status)
	}
	return stats.QueueLength, nil
}

func (c *Client) expect(ctx context.Context, method, path string, body any, want int) error {
	status, err := c.do(ctx, method, path, body, nil)
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("%w: %s %s returned %d", ErrUnexpectedStatus, method, path, status)
	}
	return nil
}

// do sends body as JSON and decodes a 2xx response into out when set.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s response: %w", path, err)
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}
