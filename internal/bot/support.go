package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/logger"

	tele "gopkg.in/telebot.v4"
)

// fieldReplyTo stores which user an admin reply is addressed to.
const fieldReplyTo = "reply_to"

// onSupportStart asks the user for their question.
func (b *Bot) onSupportStart(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	if err := b.sessions.Enter(ctx, userID, stateSupportQuestion); err != nil {
		return err
	}
	markup := inlineButtons(inlineBtn{
		Text:   b.tr.T(lang, locale.BtnCancel),
		Unique: btnSupportCancel.Unique,
	})
	return c.Send(b.tr.T(lang, locale.SupportAsk), markup)
}

// handleSupportQuestion files the ticket and notifies the admin.
func (b *Bot) handleSupportQuestion(c tele.Context, ctx context.Context, lang string) error {
	sender := c.Sender()
	userID := sender.ID
	question := c.Text()

	ticket := supportTicketFrom(sender, question, lang)
	if err := b.api.CreateSupportTicket(ctx, ticket); err != nil {
		// A lost ticket is still acknowledged; the admin notification below
		// carries the question either way.
		logger.Warn(ctx, "support", "ticket.create_failed",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
	}

	if err := b.sessions.Clear(ctx, userID); err != nil {
		return err
	}
	if err := c.Send(b.tr.T(lang, locale.SupportReceived), b.mainMenu(lang)); err != nil {
		return err
	}

	b.notifyAdmin(ctx, sender, question)
	return nil
}

// notifyAdmin forwards the question to the configured admin with a reply button.
func (b *Bot) notifyAdmin(ctx context.Context, from *tele.User, question string) {
	adminID := b.cfg.Telegram.AdminID
	if adminID == 0 || b.tele == nil {
		return
	}

	name := from.FirstName
	if from.Username != "" {
		name = fmt.Sprintf("%s (@%s)", name, from.Username)
	}
	text := b.tr.Tf(locale.Ru, locale.SupportFrom, map[string]any{"Name": name}) + "\n" +
		b.tr.Tf(locale.Ru, locale.SupportQuestion, map[string]any{"Question": question})

	markup := inlineButtons(inlineBtn{
		Text:   b.tr.T(locale.Ru, locale.SupportReplyButton),
		Unique: btnSupportReply.Unique,
		Data:   strconv.FormatInt(from.ID, 10),
	})
	if _, err := b.tele.Send(&tele.User{ID: adminID}, text, markup); err != nil {
		logger.Warn(ctx, "support", "admin.notify_failed",
			slog.Int64("admin_id", adminID),
			slog.String("err", err.Error()),
		)
	}
}

// onSupportReply puts the admin into reply mode for the chosen user.
func (b *Bot) onSupportReply(c tele.Context) error {
	ctx := buildContext(c)
	adminID := c.Sender().ID
	lang := b.language(ctx, adminID)
	_ = c.Respond()

	if adminID != b.cfg.Telegram.AdminID {
		return nil
	}

	target := strings.TrimSpace(c.Data())
	if _, err := strconv.ParseInt(target, 10, 64); err != nil {
		return nil
	}

	if err := b.sessions.Enter(ctx, adminID, stateSupportReply); err != nil {
		return err
	}
	if err := b.sessions.SetField(ctx, adminID, fieldReplyTo, target); err != nil {
		return err
	}
	return c.Send(b.tr.T(lang, locale.SupportEnterReply))
}

// handleSupportReply relays the admin's text to the waiting user.
func (b *Bot) handleSupportReply(c tele.Context, ctx context.Context, lang string) error {
	adminID := c.Sender().ID

	target, ok := b.sessions.Field(ctx, adminID, fieldReplyTo)
	if !ok {
		return b.sessions.Clear(ctx, adminID)
	}
	targetID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return b.sessions.Clear(ctx, adminID)
	}

	userLang := b.language(ctx, targetID)
	reply := b.tr.Tf(userLang, locale.SupportNewReply, map[string]any{"Text": c.Text()})
	if _, err := b.tele.Send(&tele.User{ID: targetID}, reply); err != nil {
		logger.Warn(ctx, "support", "reply.send_failed",
			slog.Int64("user_id", targetID),
			slog.String("err", err.Error()),
		)
	}

	if err := b.sessions.Clear(ctx, adminID); err != nil {
		return err
	}
	return c.Send(b.tr.T(lang, locale.SupportReplySent))
}

// onTickets lists open support tickets for the admin.
func (b *Bot) onTickets(c tele.Context) error {
	ctx := buildContext(c)
	adminID := c.Sender().ID
	lang := b.language(ctx, adminID)

	if adminID != b.cfg.Telegram.AdminID {
		return nil
	}

	tickets, err := b.api.SupportTickets(ctx)
	if err != nil || len(tickets) == 0 {
		return c.Send(b.tr.T(lang, locale.SupportNoActive))
	}

	var sb strings.Builder
	for i, t := range tickets {
		name := t.FirstName
		if t.Username != "" {
			name = fmt.Sprintf("%s (@%s)", name, t.Username)
		}
		sb.WriteString(b.tr.Tf(lang, locale.SupportFrom, map[string]any{"Name": name}))
		sb.WriteString("\n")
		sb.WriteString(b.tr.Tf(lang, locale.SupportQuestion, map[string]any{"Question": t.Question}))
		if i < len(tickets)-1 {
			sb.WriteString("\n\n")
		}
	}
	return c.Send(sb.String())
}

func supportTicketFrom(u *tele.User, question, lang string) api.SupportTicket {
	return api.SupportTicket{
		UserID:       u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		Question:     question,
		LanguageCode: lang,
	}
}
