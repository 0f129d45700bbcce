package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/khamraev/truck2terminal/internal/logger"
)

// DefaultWizardTimeout is the inactivity window before auto-cancel.
const DefaultWizardTimeout = 300 * time.Second

// ExpireFunc is called after a session has been auto-cancelled. The preserved
// language is passed so the notification can be localized.
type ExpireFunc func(userID int64, language string)

// runtimeState carries the in-process concerns of one session: the single
// cancellable expiry timer and the finalize guard. At most one of each exists
// per user regardless of the backing store.
type runtimeState struct {
	gen        uint64
	timer      *time.Timer
	finalizing bool
}

// Manager serializes access to session data and owns wizard lifecycle rules:
// auto-expiry, the preserved-field whitelist, and the at-most-one in-flight
// finalize guard.
type Manager struct {
	store    Store
	timeout  time.Duration
	onExpire ExpireFunc

	mu      sync.Mutex
	runtime map[int64]*runtimeState
}

// NewManager constructs a Manager over the given store. A zero timeout
// selects the 300s default.
func NewManager(store Store, timeout time.Duration, onExpire ExpireFunc) *Manager {
	if timeout <= 0 {
		timeout = DefaultWizardTimeout
	}
	return &Manager{
		store:    store,
		timeout:  timeout,
		onExpire: onExpire,
		runtime:  make(map[int64]*runtimeState),
	}
}

// Session returns the stored session or a fresh idle one.
func (m *Manager) Session(ctx context.Context, userID int64) *Data {
	data, err := m.store.Get(ctx, userID)
	if err != nil {
		return NewData()
	}
	return data
}

// State returns the current wizard state for the user.
func (m *Manager) State(ctx context.Context, userID int64) State {
	return m.Session(ctx, userID).State
}

// InProgress reports whether the user is inside a wizard.
func (m *Manager) InProgress(ctx context.Context, userID int64) bool {
	st := m.State(ctx, userID)
	return st != StateIdle && st != ""
}

// Enter transitions the user into a wizard state and reschedules the expiry
// timer. Each call supersedes any previously scheduled expiry.
func (m *Manager) Enter(ctx context.Context, userID int64, st State) error {
	data := m.Session(ctx, userID)
	data.State = st
	if err := m.store.Put(ctx, userID, data); err != nil {
		return err
	}
	m.scheduleExpiry(userID)
	logger.Debug(ctx, "session", "state.enter",
		slog.Int64("user_id", userID),
		slog.String("state", string(st)),
	)
	return nil
}

// SetField records one collected wizard input under its fixed key.
func (m *Manager) SetField(ctx context.Context, userID int64, key, value string) error {
	data := m.Session(ctx, userID)
	data.Fields[key] = value
	return m.store.Put(ctx, userID, data)
}

// Field returns one collected input.
func (m *Manager) Field(ctx context.Context, userID int64, key string) (string, bool) {
	v, ok := m.Session(ctx, userID).Fields[key]
	return v, ok
}

// SetPreserved records a whitelist field that survives session clears.
func (m *Manager) SetPreserved(ctx context.Context, userID int64, key, value string) error {
	data := m.Session(ctx, userID)
	data.Preserved[key] = value
	return m.store.Put(ctx, userID, data)
}

// Preserved returns a whitelist field, or empty when unset.
func (m *Manager) Preserved(ctx context.Context, userID int64, key string) string {
	return m.Session(ctx, userID).Preserved[key]
}

// Clear wipes the wizard state and collected fields, re-seeds the preserved
// whitelist into the fresh session, and cancels any pending expiry.
func (m *Manager) Clear(ctx context.Context, userID int64) error {
	data := m.Session(ctx, userID)
	preserved := data.Preserved

	fresh := NewData()
	for k, v := range preserved {
		fresh.Preserved[k] = v
	}
	if err := m.store.Put(ctx, userID, fresh); err != nil {
		return err
	}

	m.cancelExpiry(userID)
	logger.Debug(ctx, "session", "cleared",
		slog.Int64("user_id", userID),
	)
	return nil
}

// BeginFinalize marks the session as having a finalize call in flight. It
// returns false when one is already running; the caller must ignore the
// trigger in that case.
func (m *Manager) BeginFinalize(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt := m.runtimeLocked(userID)
	if rt.finalizing {
		return false
	}
	rt.finalizing = true
	return true
}

// EndFinalize releases the finalize guard.
func (m *Manager) EndFinalize(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt, ok := m.runtime[userID]; ok {
		rt.finalizing = false
	}
}

// Timeout returns the configured inactivity window.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

func (m *Manager) runtimeLocked(userID int64) *runtimeState {
	rt, ok := m.runtime[userID]
	if !ok {
		rt = &runtimeState{}
		m.runtime[userID] = rt
	}
	return rt
}

// scheduleExpiry replaces the user's pending expiry timer with a new one.
// Generations guarantee a superseded timer that still fires is a no-op.
func (m *Manager) scheduleExpiry(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt := m.runtimeLocked(userID)
	rt.gen++
	gen := rt.gen
	if rt.timer != nil {
		rt.timer.Stop()
	}
	rt.timer = time.AfterFunc(m.timeout, func() {
		m.expire(userID, gen)
	})
}

func (m *Manager) cancelExpiry(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.runtime[userID]
	if !ok {
		return
	}
	rt.gen++
	if rt.timer != nil {
		rt.timer.Stop()
		rt.timer = nil
	}
}

func (m *Manager) expire(userID int64, gen uint64) {
	m.mu.Lock()
	rt, ok := m.runtime[userID]
	if !ok || rt.gen != gen {
		m.mu.Unlock()
		return
	}
	rt.timer = nil
	m.mu.Unlock()

	ctx := context.Background()
	if !m.InProgress(ctx, userID) {
		return
	}
	language := m.Preserved(ctx, userID, KeyLanguage)
	if err := m.Clear(ctx, userID); err != nil {
		logger.Error(ctx, "session", "expire.clear_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Info(ctx, "session", "expired",
		slog.Int64("user_id", userID),
	)
	if m.onExpire != nil {
		m.onExpire(userID, language)
	}
}
