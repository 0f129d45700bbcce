// Package location implements the freshness gate applied to a driver's live
// location before route-dependent actions are allowed.
package location

import (
	"context"
	"log/slog"
	"time"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/logger"
)

// DefaultFreshness is the staleness threshold for live locations.
const DefaultFreshness = 60 * time.Second

// Verdict is the outcome of one freshness check. Exactly one gate decides it.
type Verdict int

const (
	// VerdictFresh means the driver's live location can be trusted.
	VerdictFresh Verdict = iota
	// VerdictNotFound means no location record exists for the driver.
	VerdictNotFound
	// VerdictBadTimestamp means the record's timestamp is missing or unparseable.
	VerdictBadTimestamp
	// VerdictStale means the record is older than the freshness threshold.
	VerdictStale
	// VerdictNotLive means the record is a one-shot pin, not a live share.
	VerdictNotLive
)

// Fresh reports whether the verdict allows route-dependent actions.
func (v Verdict) Fresh() bool { return v == VerdictFresh }

// String returns a short label for logs.
func (v Verdict) String() string {
	switch v {
	case VerdictFresh:
		return "fresh"
	case VerdictNotFound:
		return "not_found"
	case VerdictBadTimestamp:
		return "bad_timestamp"
	case VerdictStale:
		return "stale"
	case VerdictNotLive:
		return "not_live"
	}
	return "unknown"
}

// Fetcher retrieves the latest location record for a driver. A nil record with
// nil error means the backend has no location for the driver.
type Fetcher interface {
	LatestLocation(ctx context.Context, telegramID int64) (*api.LocationRecord, error)
}

// Validator applies the four ordered freshness gates. It fails closed: any
// fetch error or failing gate denies the action.
type Validator struct {
	fetcher   Fetcher
	threshold time.Duration
	now       func() time.Time
}

// New constructs a Validator. A zero threshold selects the 60s default.
func New(fetcher Fetcher, threshold time.Duration) *Validator {
	if threshold <= 0 {
		threshold = DefaultFreshness
	}
	return &Validator{
		fetcher:   fetcher,
		threshold: threshold,
		now:       time.Now,
	}
}

// Check fetches the latest record and evaluates the gates in fixed order:
// record presence, timestamp validity, staleness, liveness. The first failing
// gate determines the verdict.
func (v *Validator) Check(ctx context.Context, telegramID int64) Verdict {
	record, err := v.fetcher.LatestLocation(ctx, telegramID)
	if err != nil {
		logger.Warn(ctx, "location", "freshness.fetch_failed",
			slog.Int64("user_id", telegramID),
			slog.String("err", err.Error()),
		)
		return VerdictNotFound
	}
	verdict := v.evaluate(record)
	logger.Debug(ctx, "location", "freshness.checked",
		slog.Int64("user_id", telegramID),
		slog.String("verdict", verdict.String()),
	)
	return verdict
}

func (v *Validator) evaluate(record *api.LocationRecord) Verdict {
	if record == nil {
		return VerdictNotFound
	}
	if record.Timestamp == "" {
		return VerdictBadTimestamp
	}
	reported, err := parseTimestamp(record.Timestamp)
	if err != nil {
		return VerdictBadTimestamp
	}
	if v.now().UTC().Sub(reported) > v.threshold {
		return VerdictStale
	}
	if !record.IsLive {
		return VerdictNotLive
	}
	return VerdictFresh
}

func parseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
