package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestExpiryClearsAndNotifies(t *testing.T) {
	ctx := context.Background()
	var (
		mu       sync.Mutex
		notified []int64
	)
	m := NewManager(NewMemoryStore(), 30*time.Millisecond, func(userID int64, _ string) {
		mu.Lock()
		notified = append(notified, userID)
		mu.Unlock()
	})

	if err := m.Enter(ctx, 1, State("route:truck_number")); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := m.SetPreserved(ctx, 1, KeyLanguage, "ru"); err != nil {
		t.Fatalf("preserve: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) == 1
	}, time.Second)

	if m.InProgress(ctx, 1) {
		t.Fatal("session should be idle after expiry")
	}
	if got := m.Preserved(ctx, 1, KeyLanguage); got != "ru" {
		t.Fatalf("preserved language = %q, want ru", got)
	}
}

func TestSupersededTimerIsNoOp(t *testing.T) {
	ctx := context.Background()
	var fired atomic.Int32
	m := NewManager(NewMemoryStore(), 40*time.Millisecond, func(int64, string) {
		fired.Add(1)
	})

	if err := m.Enter(ctx, 1, State("route:truck_number")); err != nil {
		t.Fatalf("enter: %v", err)
	}
	// Each transition supersedes the previous timer.
	time.Sleep(25 * time.Millisecond)
	if err := m.Enter(ctx, 1, State("route:start_location")); err != nil {
		t.Fatalf("enter: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("superseded timer fired %d times", got)
	}

	waitFor(t, func() bool { return fired.Load() == 1 }, time.Second)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expiry fired %d times, want 1", got)
	}
}

func TestClearCancelsExpiry(t *testing.T) {
	ctx := context.Background()
	var fired atomic.Int32
	m := NewManager(NewMemoryStore(), 30*time.Millisecond, func(int64, string) {
		fired.Add(1)
	})

	if err := m.Enter(ctx, 1, State("support:question")); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := m.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("cancelled timer fired %d times", got)
	}
}

func TestClearReseedsWhitelistOnly(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore(), time.Hour, nil)

	if err := m.Enter(ctx, 1, State("route:truck_number")); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := m.SetField(ctx, 1, "truck_number", "01A123BC"); err != nil {
		t.Fatalf("set field: %v", err)
	}
	if err := m.SetPreserved(ctx, 1, KeyAccessToken, "tok"); err != nil {
		t.Fatalf("preserve: %v", err)
	}

	if err := m.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if m.InProgress(ctx, 1) {
		t.Fatal("state should be idle after clear")
	}
	if _, ok := m.Field(ctx, 1, "truck_number"); ok {
		t.Fatal("collected fields must not survive clear")
	}
	if got := m.Preserved(ctx, 1, KeyAccessToken); got != "tok" {
		t.Fatalf("preserved token = %q, want tok", got)
	}
}

func TestFinalizeGuardAdmitsOne(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour, nil)

	if !m.BeginFinalize(1) {
		t.Fatal("first finalize should be admitted")
	}
	if m.BeginFinalize(1) {
		t.Fatal("second finalize must be rejected while one is in flight")
	}
	// Other users are unaffected.
	if !m.BeginFinalize(2) {
		t.Fatal("finalize guard must be per user")
	}

	m.EndFinalize(1)
	if !m.BeginFinalize(1) {
		t.Fatal("finalize should be admitted again after release")
	}
}
