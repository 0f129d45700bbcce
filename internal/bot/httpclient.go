package bot

import (
	"net"
	"net/http"
	"time"

	"github.com/khamraev/truck2terminal/internal/api"
)

const (
	tgDialTimeout       = 5 * time.Second
	tgTLSHandshake      = 5 * time.Second
	tgIdleConnTimeout   = 30 * time.Second
	tgResponseTimeout   = 65 * time.Second // must exceed the long-poll timeout
	tgClientTimeout     = 75 * time.Second
	tgKeepAliveInterval = 30 * time.Second
	tgRetryAttempts     = 3
	tgRetryBackoff      = 2 * time.Second
)

// buildTelegramClient returns an HTTP client tuned for Telegram API calls,
// with transparent retries on transient transport failures.
func buildTelegramClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: tgDialTimeout, KeepAlive: tgKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       tgIdleConnTimeout,
		TLSHandshakeTimeout:   tgTLSHandshake,
		ResponseHeaderTimeout: tgResponseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: tgClientTimeout,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: tgRetryAttempts,
			backoff:    tgRetryBackoff,
		},
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		currReq := req
		if attempt > 1 {
			currReq = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				currReq.Body = body
			} else if req.Body != nil {
				// Unreplayable body: surface the previous failure.
				return nil, lastErr
			}
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !api.ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := t.backoff * time.Duration(attempt)
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}
