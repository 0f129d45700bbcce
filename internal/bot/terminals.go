package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/session"

	tele "gopkg.in/telebot.v4"
)

// onTerminals shows the terminal list as inline buttons.
func (b *Bot) onTerminals(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	token := b.sessions.Preserved(ctx, userID, session.KeyAccessToken)
	opts := b.terminals.Options(ctx, token)
	if len(opts) == 0 {
		return c.Send(b.tr.T(lang, locale.TerminalsNotFound))
	}

	buttons := make([]inlineBtn, 0, len(opts))
	for _, opt := range opts {
		buttons = append(buttons, inlineBtn{
			Text:   opt.Name,
			Unique: btnTerminal.Unique,
			Data:   strconv.FormatInt(opt.ID, 10),
		})
	}
	return c.Send(b.tr.T(lang, locale.TerminalsChoose), inlineButtons(buttons...))
}

// onTerminalDetails shows one terminal's details with location/back buttons.
func (b *Bot) onTerminalDetails(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)
	_ = c.Respond()

	id, err := strconv.ParseInt(strings.TrimSpace(c.Data()), 10, 64)
	if err != nil {
		return c.Send(b.tr.T(lang, locale.TerminalsDetailError))
	}

	token := b.sessions.Preserved(ctx, userID, session.KeyAccessToken)
	term, err := b.api.Terminal(ctx, id, token)
	if err != nil {
		return c.Send(b.tr.T(lang, locale.TerminalsDetailError))
	}

	var buttons []inlineBtn
	if term.Latitude != 0 && term.Longitude != 0 {
		buttons = append(buttons, inlineBtn{
			Text:   b.tr.T(lang, locale.TerminalsBtnLocation),
			Unique: btnTerminalLoc.Unique,
			Data:   strconv.FormatInt(term.ID, 10),
		})
	}
	buttons = append(buttons, inlineBtn{
		Text:   b.tr.T(lang, locale.TerminalsBtnBack),
		Unique: btnTerminalsBack.Unique,
	})

	return c.Edit(b.formatTerminal(lang, term), inlineButtons(buttons...))
}

// onTerminalLocation sends the terminal's position as a map pin.
func (b *Bot) onTerminalLocation(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)
	_ = c.Respond()

	id, err := strconv.ParseInt(strings.TrimSpace(c.Data()), 10, 64)
	if err != nil {
		return c.Send(b.tr.T(lang, locale.TerminalsDetailError))
	}

	token := b.sessions.Preserved(ctx, userID, session.KeyAccessToken)
	term, err := b.api.Terminal(ctx, id, token)
	if err != nil {
		return c.Send(b.tr.T(lang, locale.TerminalsDetailError))
	}
	if term.Latitude == 0 && term.Longitude == 0 {
		return c.Send(b.tr.T(lang, locale.TerminalsNoLocation))
	}

	return c.Send(&tele.Location{
		Lat: float32(term.Latitude),
		Lng: float32(term.Longitude),
	})
}

// onTerminalsBack returns from details to the terminal list.
func (b *Bot) onTerminalsBack(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)
	_ = c.Respond()

	token := b.sessions.Preserved(ctx, userID, session.KeyAccessToken)
	opts := b.terminals.Options(ctx, token)
	if len(opts) == 0 {
		return c.Edit(b.tr.T(lang, locale.TerminalsNotFound))
	}

	buttons := make([]inlineBtn, 0, len(opts))
	for _, opt := range opts {
		buttons = append(buttons, inlineBtn{
			Text:   opt.Name,
			Unique: btnTerminal.Unique,
			Data:   strconv.FormatInt(opt.ID, 10),
		})
	}
	return c.Edit(b.tr.T(lang, locale.TerminalsChoose), inlineButtons(buttons...))
}

// formatTerminal renders terminal details, skipping empty fields.
func (b *Bot) formatTerminal(lang string, t *api.Terminal) string {
	var lines []string
	if t.Name != "" {
		lines = append(lines, t.Name)
	}
	if t.FullName != "" {
		lines = append(lines, t.FullName)
	}
	pairs := []struct{ key, value string }{
		{locale.TerminalDetailAddress, t.Address},
		{locale.TerminalDetailLocation, t.Location},
		{locale.TerminalDetailCapacity, t.Capacity},
		{locale.TerminalDetailWorkingDays, t.WorkingDays},
		{locale.TerminalDetailPhone, t.Phone},
		{locale.TerminalDetailEmail, t.Email},
	}
	for _, p := range pairs {
		if strings.TrimSpace(p.value) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", b.tr.T(lang, p.key), p.value))
	}
	return strings.Join(lines, "\n")
}
