package bot

import (
	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/session"

	tele "gopkg.in/telebot.v4"
)

// onText dispatches free text: an active wizard consumes it first, then the
// main-menu labels, then the help fallback.
func (b *Bot) onText(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	st := b.sessions.State(ctx, userID)
	switch {
	case b.routeWizard.Definition().Owns(st):
		return b.handleRouteText(c, ctx, lang)
	case st == stateRouteConfirm:
		// Text at the confirm step: show the summary buttons again.
		return b.promptRouteConfirm(c, ctx, lang)
	case b.regWizard.Definition().Owns(st):
		return c.Send(
			b.tr.T(lang, locale.RegInvalidPhone),
			contactKeyboard(b.tr.T(lang, locale.RegShareButton)),
		)
	case st == stateSupportQuestion:
		return b.handleSupportQuestion(c, ctx, lang)
	case st == stateSupportReply:
		return b.handleSupportReply(c, ctx, lang)
	}

	if handler, ok := b.menu[c.Text()]; ok {
		return handler(c)
	}
	return b.onHelp(c)
}

// onCancel aborts whatever the user is in the middle of. With no active
// session it only reports there is nothing to cancel.
func (b *Bot) onCancel(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	if !b.sessions.InProgress(ctx, userID) {
		return c.Send(b.tr.T(lang, locale.CancelNothing))
	}
	if err := b.sessions.Clear(ctx, userID); err != nil {
		return err
	}
	return c.Send(b.tr.T(lang, locale.CancelDone), b.mainMenu(lang))
}

// onCancelButton is the inline-button variant of /cancel.
func (b *Bot) onCancelButton(c tele.Context) error {
	_ = c.Respond()
	return b.onCancel(c)
}

// onHelp prints the command overview.
func (b *Bot) onHelp(c tele.Context) error {
	ctx := buildContext(c)
	lang := b.language(ctx, c.Sender().ID)
	return c.Send(b.tr.T(lang, locale.HelpText), b.mainMenu(lang))
}

// onLanguage offers the language choices.
func (b *Bot) onLanguage(c tele.Context) error {
	ctx := buildContext(c)
	lang := b.language(ctx, c.Sender().ID)

	markup := inlineButtonsRow(
		inlineBtn{Text: "O'zbekcha", Unique: btnLang.Unique, Data: locale.Uz},
		inlineBtn{Text: "Русский", Unique: btnLang.Unique, Data: locale.Ru},
	)
	return c.Send(b.tr.T(lang, locale.LanguageChoose), markup)
}

// onLanguageChosen preserves the chosen language across session clears.
func (b *Bot) onLanguageChosen(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	_ = c.Respond()

	lang := locale.Normalize(c.Data())
	if err := b.sessions.SetPreserved(ctx, userID, session.KeyLanguage, lang); err != nil {
		return err
	}
	return c.Send(b.tr.T(lang, locale.LanguageSet), b.mainMenu(lang))
}
