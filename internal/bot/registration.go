package bot

import (
	"log/slog"
	"strconv"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/logger"
	"github.com/khamraev/truck2terminal/internal/session"
	"github.com/khamraev/truck2terminal/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

// onStart begins the registration wizard.
func (b *Bot) onStart(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	if _, err := b.regWizard.Start(ctx, userID); err != nil {
		return err
	}
	return c.Send(
		b.tr.T(lang, locale.RegWelcome),
		contactKeyboard(b.tr.T(lang, locale.RegShareButton)),
	)
}

// onRegister is the explicit registration command.
func (b *Bot) onRegister(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	if _, err := b.regWizard.Start(ctx, userID); err != nil {
		return err
	}
	return c.Send(
		b.tr.T(lang, locale.RegPhonePrompt),
		contactKeyboard(b.tr.T(lang, locale.RegShareButton)),
	)
}

// onContact consumes a shared phone number while the registration wizard is
// waiting for one. Contacts outside the wizard are ignored.
func (b *Bot) onContact(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	st := b.sessions.State(ctx, userID)
	if !b.regWizard.Definition().Owns(st) {
		return nil
	}

	contact := c.Message().Contact
	if contact == nil {
		return nil
	}

	res, err := b.regWizard.Handle(ctx, userID, wizard.Input{
		Kind:  wizard.KindContact,
		Phone: contact.PhoneNumber,
	})
	if err != nil {
		return err
	}
	if res.Outcome != wizard.OutcomeComplete {
		return c.Send(
			b.tr.T(lang, res.Step.InvalidKey),
			contactKeyboard(b.tr.T(lang, locale.RegShareButton)),
		)
	}
	return b.finalizeRegistration(c)
}

// finalizeRegistration authenticates the driver against the backend and
// preserves the returned identity across future wizards. At most one auth call
// runs per session; a second contact share while one is in flight is ignored.
func (b *Bot) finalizeRegistration(c tele.Context) error {
	ctx := buildContext(c)
	sender := c.Sender()
	userID := sender.ID
	lang := b.language(ctx, userID)

	if !b.sessions.BeginFinalize(userID) {
		return nil
	}
	defer b.sessions.EndFinalize(userID)

	phone, _ := b.sessions.Field(ctx, userID, "phone")

	result, err := b.api.TelegramAuth(ctx, userID, phone, sender.FirstName, sender.LastName, "driver")
	if err != nil {
		if api.IsRetryable(err) {
			// Keep the session at the phone step so another share retries.
			logger.Warn(ctx, "registration", "auth.retryable",
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
			return c.Send(
				b.tr.T(lang, locale.RegFailedRetry),
				contactKeyboard(b.tr.T(lang, locale.RegShareButton)),
			)
		}
		logger.Warn(ctx, "registration", "auth.rejected",
			slog.Int64("user_id", userID),
			slog.Int("status", api.StatusOf(err)),
			slog.String("err", err.Error()),
		)
		if clearErr := b.sessions.Clear(ctx, userID); clearErr != nil {
			return clearErr
		}
		return c.Send(b.tr.T(lang, locale.RegFailed), removeKeyboard())
	}

	pairs := map[string]string{
		session.KeyAccessToken:  result.Access,
		session.KeyRefreshToken: result.Refresh,
		session.KeyUserID:       strconv.FormatInt(result.UserID, 10),
		session.KeyRole:         result.Role,
	}
	for key, value := range pairs {
		if err := b.sessions.SetPreserved(ctx, userID, key, value); err != nil {
			return err
		}
	}
	if err := b.sessions.Clear(ctx, userID); err != nil {
		return err
	}

	logger.Info(ctx, "registration", "completed",
		slog.Int64("user_id", userID),
		slog.String("role", result.Role),
	)
	return c.Send(
		b.tr.Tf(lang, locale.RegSuccess, map[string]any{"Name": sender.FirstName}),
		b.mainMenu(lang),
	)
}

// registered reports whether the user holds an access token.
func (b *Bot) registered(c tele.Context) bool {
	ctx := buildContext(c)
	return b.sessions.Preserved(ctx, c.Sender().ID, session.KeyAccessToken) != ""
}
