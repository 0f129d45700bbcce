package bot

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/logger"
	"github.com/khamraev/truck2terminal/internal/session"

	tele "gopkg.in/telebot.v4"
)

// onProfile shows the driver's account data from the backend.
func (b *Bot) onProfile(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	if !b.registered(c) {
		return c.Send(
			b.tr.T(lang, locale.RegPhonePrompt),
			contactKeyboard(b.tr.T(lang, locale.RegShareButton)),
		)
	}

	token := b.sessions.Preserved(ctx, userID, session.KeyAccessToken)
	profile, err := b.api.GetUserProfile(ctx, userID, token)
	if err != nil {
		logger.Warn(ctx, "profile", "fetch.failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return c.Send(b.tr.T(lang, locale.ProfileFetchFailed), b.mainMenu(lang))
	}
	return c.Send(b.formatProfile(lang, profile), b.mainMenu(lang))
}

// formatProfile renders the labeled profile lines, skipping empty fields.
func (b *Bot) formatProfile(lang string, p *api.UserProfile) string {
	pairs := []struct{ key, value string }{
		{locale.ProfileFirstName, p.FirstName},
		{locale.ProfileLastName, p.LastName},
		{locale.ProfilePhone, p.PhoneNumber},
		{locale.ProfileTruck, p.TruckNumber},
		{locale.ProfileLanguage, p.PreferredLanguage},
	}
	var lines []string
	for _, pair := range pairs {
		if strings.TrimSpace(pair.value) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", b.tr.T(lang, pair.key), pair.value))
	}
	return strings.Join(lines, "\n")
}
