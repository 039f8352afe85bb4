package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	DefaultEndpoint       = "https://khatwa-backend.vercel.app/"
	DefaultReportEndpoint = "https://khatwa-backend.vercel.app/report"
)

// NetworkError is returned for any failed fetch: transport errors, non-2xx
// statuses and undecodable bodies. Callers treat it as retryable.
type NetworkError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the request may succeed.
func (e *NetworkError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsNetworkError reports whether err wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Client talks to the mosque timings backend.
type Client struct {
	httpClient *http.Client
	// Endpoint returns the JSON array of mosques. Exported for testing with httptest.
	Endpoint string
	// ReportEndpoint accepts report submissions.
	ReportEndpoint string
}

// NewClient creates a new API client with sensible defaults.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Endpoint:       DefaultEndpoint,
		ReportEndpoint: DefaultReportEndpoint,
	}
}

// FetchMosques fetches today's records for every mosque.
func (c *Client) FetchMosques(ctx context.Context) ([]Mosque, error) {
	const op = "fetch mosques"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(body))}
	}

	var mosques []Mosque
	if err := json.NewDecoder(resp.Body).Decode(&mosques); err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return mosques, nil
}

// SubmitReport posts a report. Only success or failure is reported back.
func (c *Client) SubmitReport(ctx context.Context, r Report) error {
	const op = "submit report"

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ReportEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(msg))}
	}
	return nil
}
