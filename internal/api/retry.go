package api

import (
	"errors"
	"net"
	"net/url"
)

// giveupStatuses are HTTP codes the client never retries. Client errors are
// deterministic rejections; retrying them only burns the budget.
var giveupStatuses = map[int]struct{}{
	400: {},
	401: {},
	403: {},
	404: {},
}

func isGiveupStatus(status int) bool {
	_, ok := giveupStatuses[status]
	return ok
}

// retriableStatus reports whether an HTTP status should be retried. Success
// codes (200 and 201 alike) terminate the loop, giveup codes surface
// immediately, everything else is considered transient.
func retriableStatus(status int) bool {
	if status == 200 || status == 201 {
		return false
	}
	return !isGiveupStatus(status)
}

// ShouldRetry reports whether a transport-level error is worth retrying. It
// is shared with the Telegram transport, which runs its own retry loop.
func ShouldRetry(err error) bool {
	return retriableNetwork(err)
}

// retriableNetwork reports whether a connection-level error is worth retrying.
// It focuses on transient dial/timeout failures produced by net/http while
// contacting the backend.
func retriableNetwork(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
		if nested, ok := opErr.Err.(net.Error); ok && nested.Timeout() {
			return true
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return retriableNetwork(urlErr.Err)
		}
		// A refused or reset connection during dial is transient as well.
		return true
	}

	return false
}
