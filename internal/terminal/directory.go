// Package terminal provides the two-tier terminal directory: a remote list
// cached with a TTL, backed by a built-in static set. Callers never learn
// which tier answered.
package terminal

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/logger"
)

const cacheTTL = 5 * time.Minute

// Option is a selectable terminal presented to the user.
type Option struct {
	ID   int64
	Name string
}

// fallbackOptions is the built-in terminal set used when the backend cannot be
// reached. The wizard must never stall on a transient fetch failure.
var fallbackOptions = []Option{
	{ID: 1, Name: "ULS"},
	{ID: 2, Name: "FTT"},
	{ID: 3, Name: "MTT"},
}

// Lister fetches the terminal list from the backend.
type Lister interface {
	Terminals(ctx context.Context, accessToken string) ([]api.Terminal, error)
}

// Directory resolves terminal names and ids, preferring live backend data.
type Directory struct {
	lister Lister

	mu        sync.RWMutex
	cached    []Option
	fetchedAt time.Time
	now       func() time.Time
}

// NewDirectory constructs a Directory over the given backend lister.
func NewDirectory(lister Lister) *Directory {
	return &Directory{
		lister: lister,
		now:    time.Now,
	}
}

// Options returns the current terminal choices. A fresh cache answers first,
// then a live fetch, then the built-in fallback set.
func (d *Directory) Options(ctx context.Context, accessToken string) []Option {
	d.mu.RLock()
	if d.cached != nil && d.now().Sub(d.fetchedAt) < cacheTTL {
		opts := d.cached
		d.mu.RUnlock()
		return opts
	}
	d.mu.RUnlock()

	terminals, err := d.lister.Terminals(ctx, accessToken)
	if err != nil || len(terminals) == 0 {
		if err != nil {
			logger.Warn(ctx, "terminal", "directory.fallback",
				slog.String("err", err.Error()),
			)
		}
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.cached != nil {
			// Stale cache still beats the static set.
			return d.cached
		}
		return fallbackOptions
	}

	opts := make([]Option, 0, len(terminals))
	for _, t := range terminals {
		opts = append(opts, Option{ID: t.ID, Name: t.Name})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].ID < opts[j].ID })

	d.mu.Lock()
	d.cached = opts
	d.fetchedAt = d.now()
	d.mu.Unlock()

	logger.Debug(ctx, "terminal", "directory.refreshed",
		slog.Int("count", len(opts)),
	)
	return opts
}

// Resolve maps a terminal name to its id within the current option set.
func (d *Directory) Resolve(ctx context.Context, accessToken, name string) (int64, bool) {
	for _, opt := range d.Options(ctx, accessToken) {
		if opt.Name == name {
			return opt.ID, true
		}
	}
	return 0, false
}

// NameByID maps a terminal id back to its display name, falling back to empty
// when the id is unknown in both tiers.
func (d *Directory) NameByID(ctx context.Context, accessToken string, id int64) string {
	for _, opt := range d.Options(ctx, accessToken) {
		if opt.ID == id {
			return opt.Name
		}
	}
	return ""
}
