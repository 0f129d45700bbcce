// Package session holds per-user conversation state: the current wizard step,
// the collected fields, and the identity fields preserved across wizards.
package session

import (
	"context"
	"errors"
	"time"
)

// State identifies a wizard step. The empty value and StateIdle both mean no
// active conversation.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// Preserved field keys re-seeded into a cleared session.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUserID       = "user_id"
	KeyRole         = "role"
	KeyLanguage     = "language"
)

// Data is the persisted portion of a session. Runtime-only concerns (expiry
// timers, the finalize guard) live in Manager, not here.
type Data struct {
	State State
	// Fields collects wizard inputs under fixed keys.
	Fields map[string]string
	// Preserved holds the whitelist of fields that survive clears.
	Preserved map[string]string
	UpdatedAt time.Time
}

// NewData returns an idle session with initialized maps.
func NewData() *Data {
	return &Data{
		State:     StateIdle,
		Fields:    make(map[string]string),
		Preserved: make(map[string]string),
	}
}

// Clone returns a deep copy so callers can mutate without racing the store.
func (d *Data) Clone() *Data {
	out := &Data{
		State:     d.State,
		Fields:    make(map[string]string, len(d.Fields)),
		Preserved: make(map[string]string, len(d.Preserved)),
		UpdatedAt: d.UpdatedAt,
	}
	for k, v := range d.Fields {
		out.Fields[k] = v
	}
	for k, v := range d.Preserved {
		out.Preserved[k] = v
	}
	return out
}

// ErrNotFound is returned by stores when no session exists for the user.
var ErrNotFound = errors.New("session: not found")

// Store persists sessions keyed by Telegram user ID. Implementations must be
// safe for concurrent use; per-session serialization is the Manager's job.
type Store interface {
	Get(ctx context.Context, userID int64) (*Data, error)
	Put(ctx context.Context, userID int64, data *Data) error
	Clear(ctx context.Context, userID int64) error
}
