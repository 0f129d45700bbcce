package bot

import (
	"log/slog"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/logger"

	tele "gopkg.in/telebot.v4"
)

// onLocation handles a freshly shared location message.
func (b *Bot) onLocation(c tele.Context) error {
	return b.processLocation(c, false)
}

// onEdited handles edited messages. Live-location updates arrive as edits of
// the original share.
func (b *Bot) onEdited(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Location == nil {
		return nil
	}
	return b.processLocation(c, true)
}

// processLocation relays a live-location sample to the backend. Static pins
// are rejected unless they terminate an active live share, which is treated
// as the share stopping.
func (b *Bot) processLocation(c tele.Context, isEdit bool) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	loc := c.Message().Location
	if loc == nil {
		return nil
	}

	if loc.LivePeriod == 0 {
		b.liveMu.Lock()
		wasLive := b.liveShares[userID]
		delete(b.liveShares, userID)
		b.liveMu.Unlock()

		if wasLive {
			logger.Info(ctx, "tracking", "live.stopped",
				slog.Int64("user_id", userID),
			)
			return nil
		}
		logger.Warn(ctx, "tracking", "static_pin",
			slog.Int64("user_id", userID),
		)
		return c.Send(b.tr.T(lang, locale.LocStaticPin))
	}

	b.liveMu.Lock()
	b.liveShares[userID] = true
	b.liveMu.Unlock()

	upd := api.LocationUpdate{
		TelegramID: userID,
		Latitude:   float64(loc.Lat),
		Longitude:  float64(loc.Lng),
	}
	if loc.HorizontalAccuracy != nil && *loc.HorizontalAccuracy > 0 {
		acc := float64(*loc.HorizontalAccuracy)
		upd.HorizontalAccuracy = &acc
	}

	if err := b.api.PostLocation(ctx, upd); err != nil {
		logger.Error(ctx, "tracking", "post.failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return c.Send(b.tr.T(lang, locale.LocSendFailed))
	}

	event := "live.updated"
	if isEdit {
		event = "live.edited"
	}
	logger.Debug(ctx, "tracking", event,
		slog.Int64("user_id", userID),
		slog.Float64("lat", upd.Latitude),
		slog.Float64("lon", upd.Longitude),
	)
	return nil
}
