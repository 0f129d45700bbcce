// Package bot wires the Telegram presentation layer: handlers, keyboards,
// middleware and the bot run loop.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/config"
	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/location"
	"github.com/khamraev/truck2terminal/internal/logger"
	"github.com/khamraev/truck2terminal/internal/session"
	"github.com/khamraev/truck2terminal/internal/terminal"
	"github.com/khamraev/truck2terminal/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

// Bot aggregates every component the handlers need.
type Bot struct {
	cfg       *config.Config
	api       *api.Client
	sessions  *session.Manager
	fresh     *location.Validator
	terminals *terminal.Directory
	tr        *locale.Translator

	regWizard   *wizard.Runner
	routeWizard *wizard.Runner

	tele *tele.Bot

	// liveShares tracks users with an active live-location share so a final
	// static-looking update can be recognized as the share stopping.
	liveMu     sync.Mutex
	liveShares map[int64]bool

	// menu maps localized main-menu button labels to their handlers.
	menu map[string]tele.HandlerFunc
}

// New assembles the bot over the given session store. The Telegram connection
// itself is established in Run.
func New(cfg *config.Config, apiClient *api.Client, store session.Store, tr *locale.Translator) *Bot {
	b := &Bot{
		cfg:        cfg,
		api:        apiClient,
		tr:         tr,
		terminals:  terminal.NewDirectory(apiClient),
		fresh:      location.New(apiClient, cfg.Session.Freshness()),
		liveShares: make(map[int64]bool),
	}
	b.sessions = session.NewManager(store, cfg.Session.WizardTimeout(), b.notifyExpired)
	b.regWizard = wizard.NewRunner(b.registrationDefinition(), b.sessions)
	b.routeWizard = wizard.NewRunner(b.routeDefinition(), b.sessions)
	b.buildMenu()
	return b
}

// Sessions exposes the session manager, used by tests.
func (b *Bot) Sessions() *session.Manager { return b.sessions }

// buildMenu indexes the localized main-menu labels of both languages so the
// text handler can dispatch button presses regardless of the user's language.
func (b *Bot) buildMenu() {
	b.menu = make(map[string]tele.HandlerFunc)
	for _, lang := range []string{locale.Uz, locale.Ru} {
		b.menu[b.tr.T(lang, locale.MenuAddRoute)] = b.onRouteStart
		b.menu[b.tr.T(lang, locale.MenuProfile)] = b.onProfile
		b.menu[b.tr.T(lang, locale.MenuTerminals)] = b.onTerminals
		b.menu[b.tr.T(lang, locale.MenuSupport)] = b.onSupportStart
		b.menu[b.tr.T(lang, locale.MenuLanguage)] = b.onLanguage
	}
}

// Run connects to Telegram and processes updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	poller := buildPoller(b.cfg)
	settings := tele.Settings{
		Token:  b.cfg.Telegram.Token,
		Poller: poller,
		Client: buildTelegramClient(),
	}

	buildStart := time.Now()
	bot, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("bot: initialization failed: %w", err)
	}
	b.tele = bot

	switch p := poller.(type) {
	case *tele.Webhook:
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.RoundMS(time.Since(buildStart))),
		)
	default:
		logger.Info(ctx, "tg", "mode",
			slog.String("mode", "polling"),
			slog.Duration("duration", logger.RoundMS(time.Since(buildStart))),
		)
		if err := deleteWebhook(b.cfg.Telegram.Token); err != nil {
			logger.Warn(ctx, "tg", "delete_webhook",
				slog.String("err", err.Error()),
			)
		}
	}

	bot.Use(recoverMiddleware)
	if interval := time.Duration(b.cfg.RateLimit.IntervalMS) * time.Millisecond; interval > 0 {
		bot.Use(rateLimitMiddleware(rateLimitOptions{
			Interval:  interval,
			OnLimited: b.onRateLimited,
		}))
	}
	bot.Use(loggerMiddleware)

	b.registerHandlers(bot)
	b.setCommands(bot)

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

// registerHandlers binds every endpoint the bot serves.
func (b *Bot) registerHandlers(bot *tele.Bot) {
	bot.Handle("/start", b.onStart)
	bot.Handle("/register", b.onRegister)
	bot.Handle("/route", b.onRouteStart)
	bot.Handle("/profile", b.onProfile)
	bot.Handle("/terminals", b.onTerminals)
	bot.Handle("/support", b.onSupportStart)
	bot.Handle("/tickets", b.onTickets)
	bot.Handle("/language", b.onLanguage)
	bot.Handle("/cancel", b.onCancel)
	bot.Handle("/help", b.onHelp)

	bot.Handle(tele.OnText, b.onText)
	bot.Handle(tele.OnContact, b.onContact)
	bot.Handle(tele.OnLocation, b.onLocation)
	bot.Handle(tele.OnEdited, b.onEdited)

	bot.Handle(&btnRouteSend, b.onRouteSend)
	bot.Handle(&btnRouteCancel, b.onCancelButton)
	bot.Handle(&btnTerminal, b.onTerminalDetails)
	bot.Handle(&btnTerminalLoc, b.onTerminalLocation)
	bot.Handle(&btnTerminalsBack, b.onTerminalsBack)
	bot.Handle(&btnSupportReply, b.onSupportReply)
	bot.Handle(&btnSupportCancel, b.onCancelButton)
	bot.Handle(&btnLang, b.onLanguageChosen)
}

// Callback endpoints. Handlers match on the unique; per-message data rides in
// the payload.
var (
	btnRouteSend     = tele.Btn{Unique: "route_send"}
	btnRouteCancel   = tele.Btn{Unique: "route_cancel"}
	btnTerminal      = tele.Btn{Unique: "terminal"}
	btnTerminalLoc   = tele.Btn{Unique: "terminal_loc"}
	btnTerminalsBack = tele.Btn{Unique: "terminals_back"}
	btnSupportReply  = tele.Btn{Unique: "support_reply"}
	btnSupportCancel = tele.Btn{Unique: "support_cancel"}
	btnLang          = tele.Btn{Unique: "lang"}
)

func (b *Bot) setCommands(bot *tele.Bot) {
	cmds := []tele.Command{
		{Text: "/start", Description: "Register and open the menu"},
		{Text: "/route", Description: "Create a new route"},
		{Text: "/profile", Description: "Show your profile"},
		{Text: "/terminals", Description: "Browse terminals"},
		{Text: "/support", Description: "Contact support"},
		{Text: "/language", Description: "Choose language"},
		{Text: "/cancel", Description: "Cancel the current action"},
		{Text: "/help", Description: "Show help"},
	}
	if err := bot.SetCommands(cmds); err != nil {
		logger.Error(context.Background(), "tg", "set_commands_failed",
			slog.String("err", err.Error()),
		)
	}
}

// language returns the user's preserved language choice.
func (b *Bot) language(ctx context.Context, userID int64) string {
	return locale.Normalize(b.sessions.Preserved(ctx, userID, session.KeyLanguage))
}

// mainMenu builds the localized main-menu reply keyboard.
func (b *Bot) mainMenu(lang string) *tele.ReplyMarkup {
	return replyButtons(
		[]string{b.tr.T(lang, locale.MenuAddRoute)},
		[]string{b.tr.T(lang, locale.MenuTerminals), b.tr.T(lang, locale.MenuSupport)},
		[]string{b.tr.T(lang, locale.MenuProfile), b.tr.T(lang, locale.MenuLanguage)},
	)
}

// verdictKey maps a freshness verdict to its locale message.
func verdictKey(v location.Verdict) string {
	switch v {
	case location.VerdictNotFound:
		return locale.LocNotFound
	case location.VerdictBadTimestamp:
		return locale.LocBadTimestamp
	case location.VerdictStale:
		return locale.LocStale
	case location.VerdictNotLive:
		return locale.LocNotLive
	}
	return locale.LocNotFound
}

// notifyExpired tells a user their wizard was auto-cancelled.
func (b *Bot) notifyExpired(userID int64, language string) {
	if b.tele == nil {
		return
	}
	lang := locale.Normalize(language)
	_, err := b.tele.Send(&tele.User{ID: userID},
		b.tr.T(lang, locale.SessionExpired),
		b.mainMenu(lang),
	)
	if err != nil {
		logger.Warn(context.Background(), "tg", "expiry.notify_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}
}

func (b *Bot) onRateLimited(c tele.Context) error {
	ctx := buildContext(c)
	lang := b.language(ctx, c.Sender().ID)
	return c.Send(b.tr.T(lang, locale.RateLimited))
}

// deleteWebhook clears a previously registered webhook before long polling.
func deleteWebhook(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader("drop_pending_updates=false"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}

// buildPoller returns a telebot poller based on the configured run mode.
func buildPoller(cfg *config.Config) tele.Poller {
	if cfg.Telegram.RunMode == config.RunModeWebhook {
		return &tele.Webhook{
			Listen:   fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	timeoutSec := cfg.Telegram.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second}
}
