// Package api implements the resilient client for the Truck2Terminal backend.
// Requests are retried with exponential backoff within a time-bounded budget;
// 201 responses count as success and client errors surface immediately.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/khamraev/truck2terminal/internal/logger"
)

const (
	defaultRetryBudget = 60 * time.Second
	initialBackoff     = 500 * time.Millisecond
	maxBackoff         = 10 * time.Second
)

// Response carries the terminal status and decoded JSON payload of a request.
type Response struct {
	Status int
	Body   json.RawMessage
}

// Options configure a Client.
type Options struct {
	BaseURL string
	Key     string
	// RetryBudget bounds total time spent on one logical request including
	// backoff waits. Zero selects the 60s default.
	RetryBudget time.Duration
	// HTTPClient overrides the tuned default, used by tests.
	HTTPClient *http.Client
}

// Client performs requests against the backend REST API. It holds no
// per-session state and is safe for concurrent use.
type Client struct {
	baseURL string
	key     string
	budget  time.Duration
	http    *http.Client
}

// New constructs a Client from options.
func New(opts Options) *Client {
	budget := opts.RetryBudget
	if budget <= 0 {
		budget = defaultRetryBudget
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = buildHTTPClient()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		key:     opts.Key,
		budget:  budget,
		http:    httpClient,
	}
}

// Request performs method+path with an optional JSON body, retrying transient
// failures with exponential backoff until success or budget exhaustion.
// A 201 status terminates the loop exactly like 200.
func (c *Client) Request(ctx context.Context, method, path string, body any, headers map[string]string) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: encode request body: %w", err)
		}
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, c.budget)
	defer cancel()

	var (
		lastErr    error
		lastStatus int
	)
	backoff := initialBackoff
	start := time.Now()

	for attempt := 1; ; attempt++ {
		resp, err := c.do(deadlineCtx, method, path, payload, headers)
		if err == nil {
			if resp.Status == http.StatusOK || resp.Status == http.StatusCreated {
				if attempt > 1 {
					logger.Info(ctx, "api", "request.retry.success",
						slog.String("method", method),
						slog.String("path", path),
						slog.Int("attempt", attempt),
						slog.Int64("elapsed_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
					)
				}
				return resp, nil
			}
			lastStatus = resp.Status
			lastErr = nil
			if !retriableStatus(resp.Status) {
				return nil, c.statusError(method, path, resp.Status)
			}
		} else {
			var mb *malformedBody
			if errors.As(err, &mb) {
				return nil, &Error{Kind: KindMalformedResponse, Status: mb.status, Method: method, Path: path, Err: err}
			}
			lastStatus = 0
			lastErr = err
			if !retriableNetwork(err) {
				return nil, &Error{Kind: KindTransient, Method: method, Path: path, Err: err}
			}
		}

		if deadlineCtx.Err() != nil {
			break
		}

		logger.Debug(ctx, "api", "request.retry.backoff",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.Int("status", lastStatus),
			slog.Duration("delay", backoff),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-deadlineCtx.Done():
			timer.Stop()
		case <-timer.C:
		}
		if deadlineCtx.Err() != nil {
			break
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	// Budget exhausted: surface the last observed failure.
	if lastStatus != 0 {
		return nil, c.statusError(method, path, lastStatus)
	}
	if lastErr == nil {
		lastErr = deadlineCtx.Err()
	}
	logger.Warn(ctx, "api", "request.budget_exhausted",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int64("elapsed_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	)
	return nil, &Error{Kind: KindTransient, Method: method, Path: path, Err: lastErr}
}

// do performs a single attempt and decodes the response body.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	out := &Response{Status: resp.StatusCode}
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		if !isJSONContent(resp.Header.Get("Content-Type")) || !json.Valid(data) {
			return nil, &malformedBody{status: resp.StatusCode}
		}
		out.Body = json.RawMessage(data)
	}
	return out, nil
}

// malformedBody is an internal sentinel turned into a typed Error by Request.
type malformedBody struct{ status int }

func (m *malformedBody) Error() string {
	return fmt.Sprintf("non-JSON body with status %d", m.status)
}

func (c *Client) statusError(method, path string, status int) *Error {
	kind := KindClientRejected
	if status >= 500 {
		kind = KindServerError
	}
	return &Error{Kind: kind, Status: status, Method: method, Path: path}
}

func isJSONContent(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
