package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/config"
	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/session"
)

func newTestBot(t *testing.T, handler http.Handler) *Bot {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	apiClient := api.New(api.Options{
		BaseURL:     srv.URL,
		RetryBudget: 200 * time.Millisecond,
		HTTPClient:  srv.Client(),
	})
	tr, err := locale.New()
	if err != nil {
		t.Fatalf("locales: %v", err)
	}
	return New(&config.Config{}, apiClient, session.NewMemoryStore(), tr)
}

// testContext stubs the handler surface the registration flow touches. The
// embedded interface panics on anything the flow should never call.
type testContext struct {
	tele.Context

	user *tele.User
	msg  *tele.Message

	mu   sync.Mutex
	vals map[string]any
	sent []string
}

func newContactContext(userID int64, phone string) *testContext {
	u := &tele.User{ID: userID, FirstName: "Aziz"}
	return &testContext{
		user: u,
		msg:  &tele.Message{Sender: u, Contact: &tele.Contact{PhoneNumber: phone, UserID: userID}},
		vals: make(map[string]any),
	}
}

func (c *testContext) Sender() *tele.User     { return c.user }
func (c *testContext) Chat() *tele.Chat       { return &tele.Chat{ID: c.user.ID} }
func (c *testContext) Message() *tele.Message { return c.msg }
func (c *testContext) Text() string           { return "" }
func (c *testContext) Update() tele.Update    { return tele.Update{} }

func (c *testContext) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vals[key]
}

func (c *testContext) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[key] = val
}

func (c *testContext) Send(what any, _ ...any) error {
	if text, ok := what.(string); ok {
		c.mu.Lock()
		c.sent = append(c.sent, text)
		c.mu.Unlock()
	}
	return nil
}

func (c *testContext) Respond(_ ...*tele.CallbackResponse) error { return nil }

func (c *testContext) sentTexts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func containsText(texts []string, want string) bool {
	for _, t := range texts {
		if t == want {
			return true
		}
	}
	return false
}

func TestRegistrationRetryableFailureKeepsPhoneStep(t *testing.T) {
	b := newTestBot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	}))
	ctx := context.Background()

	if _, err := b.regWizard.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	c := newContactContext(1, "+998901234567")
	if err := b.onContact(c); err != nil {
		t.Fatalf("contact: %v", err)
	}

	if got := b.sessions.State(ctx, 1); got != stateRegPhone {
		t.Fatalf("state = %s, want %s", got, stateRegPhone)
	}
	want := b.tr.T(locale.Uz, locale.RegFailedRetry)
	if !containsText(c.sentTexts(), want) {
		t.Fatalf("retry message not sent, got %q", c.sentTexts())
	}
}

func TestRegistrationRejectedFailureClears(t *testing.T) {
	b := newTestBot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	ctx := context.Background()

	if _, err := b.regWizard.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	c := newContactContext(1, "+998901234567")
	if err := b.onContact(c); err != nil {
		t.Fatalf("contact: %v", err)
	}

	if b.sessions.InProgress(ctx, 1) {
		t.Fatal("rejected auth must clear the session")
	}
	if got := b.sessions.Preserved(ctx, 1, session.KeyAccessToken); got != "" {
		t.Fatalf("no token should be preserved, got %q", got)
	}
	want := b.tr.T(locale.Uz, locale.RegFailed)
	if !containsText(c.sentTexts(), want) {
		t.Fatalf("failure message not sent, got %q", c.sentTexts())
	}
}

func TestRegistrationFinalizeSingleFlight(t *testing.T) {
	var calls int32
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	b := newTestBot(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		entered <- struct{}{}
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"tok","refresh":"ref","user_id":9,"role":"driver"}`))
	}))
	ctx := context.Background()

	if _, err := b.regWizard.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}

	first := newContactContext(1, "+998901234567")
	done := make(chan error, 1)
	go func() { done <- b.onContact(first) }()
	<-entered

	// A second share while the auth call is in flight must not reach the backend.
	second := newContactContext(1, "+998901234567")
	if err := b.onContact(second); err != nil {
		t.Fatalf("second contact: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("auth calls = %d, want 1", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first contact: %v", err)
	}

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("auth calls = %d, want 1", got)
	}
	if got := b.sessions.Preserved(ctx, 1, session.KeyAccessToken); got != "tok" {
		t.Fatalf("preserved token = %q, want tok", got)
	}
	if b.sessions.InProgress(ctx, 1) {
		t.Fatal("session should be idle after successful registration")
	}
}
