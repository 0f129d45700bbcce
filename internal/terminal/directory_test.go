package terminal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khamraev/truck2terminal/internal/api"
)

type stubLister struct {
	terminals []api.Terminal
	err       error
	calls     int
}

func (s *stubLister) Terminals(_ context.Context, _ string) ([]api.Terminal, error) {
	s.calls++
	return s.terminals, s.err
}

func TestOptionsFallbackWhenBackendFails(t *testing.T) {
	d := NewDirectory(&stubLister{err: errors.New("backend down")})

	opts := d.Options(context.Background(), "")
	if len(opts) != 3 {
		t.Fatalf("got %d options, want the 3 built-ins", len(opts))
	}
	want := map[string]int64{"ULS": 1, "FTT": 2, "MTT": 3}
	for _, opt := range opts {
		if want[opt.Name] != opt.ID {
			t.Fatalf("option %s has id %d, want %d", opt.Name, opt.ID, want[opt.Name])
		}
	}
}

func TestOptionsCachesWithinTTL(t *testing.T) {
	lister := &stubLister{terminals: []api.Terminal{
		{ID: 5, Name: "NEW"},
		{ID: 1, Name: "ULS"},
	}}
	d := NewDirectory(lister)
	now := time.Now()
	d.now = func() time.Time { return now }

	first := d.Options(context.Background(), "tok")
	if lister.calls != 1 {
		t.Fatalf("calls = %d, want 1", lister.calls)
	}
	if first[0].ID != 1 || first[1].ID != 5 {
		t.Fatalf("options not sorted by id: %+v", first)
	}

	// Within TTL: cache answers.
	_ = d.Options(context.Background(), "tok")
	if lister.calls != 1 {
		t.Fatalf("cache miss within TTL, calls = %d", lister.calls)
	}

	// After TTL: refetched.
	now = now.Add(cacheTTL + time.Second)
	_ = d.Options(context.Background(), "tok")
	if lister.calls != 2 {
		t.Fatalf("calls = %d, want refetch after TTL", lister.calls)
	}
}

func TestOptionsStaleCacheBeatsFallback(t *testing.T) {
	lister := &stubLister{terminals: []api.Terminal{{ID: 9, Name: "XYZ"}}}
	d := NewDirectory(lister)
	now := time.Now()
	d.now = func() time.Time { return now }

	_ = d.Options(context.Background(), "tok")

	lister.err = errors.New("backend down")
	lister.terminals = nil
	now = now.Add(cacheTTL + time.Second)

	opts := d.Options(context.Background(), "tok")
	if len(opts) != 1 || opts[0].ID != 9 {
		t.Fatalf("expected stale cache, got %+v", opts)
	}
}

func TestResolveAndNameByID(t *testing.T) {
	d := NewDirectory(&stubLister{err: errors.New("offline")})
	ctx := context.Background()

	id, ok := d.Resolve(ctx, "", "FTT")
	if !ok || id != 2 {
		t.Fatalf("Resolve(FTT) = %d, %v", id, ok)
	}
	if _, ok := d.Resolve(ctx, "", "NOPE"); ok {
		t.Fatal("unknown name must not resolve")
	}

	if name := d.NameByID(ctx, "", 3); name != "MTT" {
		t.Fatalf("NameByID(3) = %q, want MTT", name)
	}
	if name := d.NameByID(ctx, "", 42); name != "" {
		t.Fatalf("NameByID(42) = %q, want empty", name)
	}
}
