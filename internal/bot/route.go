package bot

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/logger"
	"github.com/khamraev/truck2terminal/internal/session"
	"github.com/khamraev/truck2terminal/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

// onRouteStart gates wizard entry on registration and a fresh live location,
// then enters the first step. A failing gate leaves the session untouched.
func (b *Bot) onRouteStart(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	if !b.registered(c) {
		return c.Send(
			b.tr.T(lang, locale.RegPhonePrompt),
			contactKeyboard(b.tr.T(lang, locale.RegShareButton)),
		)
	}

	verdict := b.fresh.Check(ctx, userID)
	if !verdict.Fresh() {
		logger.Info(ctx, "route", "start.rejected",
			slog.Int64("user_id", userID),
			slog.String("verdict", verdict.String()),
		)
		return c.Send(b.tr.T(lang, verdictKey(verdict)))
	}

	step, err := b.routeWizard.Start(ctx, userID)
	if err != nil {
		return err
	}
	return b.promptRouteStep(c, ctx, lang, step)
}

// handleRouteText feeds one text message into the route wizard.
func (b *Bot) handleRouteText(c tele.Context, ctx context.Context, lang string) error {
	userID := c.Sender().ID

	st := b.sessions.State(ctx, userID)
	step, ok := b.routeWizard.Definition().StepAt(st)
	if !ok {
		return nil
	}

	in := wizard.Input{Kind: wizard.KindText, Text: c.Text()}
	switch step.Accepts {
	case wizard.KindChoice, wizard.KindDate:
		in.Kind = step.Accepts
	}

	res, err := b.routeWizard.Handle(ctx, userID, in)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case wizard.OutcomeIgnored, wizard.OutcomeInvalid:
		return c.Send(
			b.tr.T(lang, res.Step.InvalidKey),
			b.routeStepKeyboard(ctx, userID, res.Step),
		)
	case wizard.OutcomeAdvanced:
		return b.promptRouteStep(c, ctx, lang, res.Next)
	case wizard.OutcomeComplete:
		return b.promptRouteConfirm(c, ctx, lang)
	}
	return nil
}

// promptRouteStep sends the step's prompt with its keyboard.
func (b *Bot) promptRouteStep(c tele.Context, ctx context.Context, lang string, step wizard.Step) error {
	return c.Send(
		b.tr.T(lang, step.PromptKey),
		b.routeStepKeyboard(ctx, c.Sender().ID, step),
	)
}

// routeStepKeyboard builds the reply keyboard for a step: choice steps get
// their options laid out two per row, text steps drop the keyboard.
func (b *Bot) routeStepKeyboard(ctx context.Context, userID int64, step wizard.Step) *tele.ReplyMarkup {
	if step.Choices == nil {
		return removeKeyboard()
	}
	return replyChoices(step.Choices(ctx, userID), 2)
}

// promptRouteConfirm enters the confirm state and shows the collected summary
// with send/cancel inline buttons.
func (b *Bot) promptRouteConfirm(c tele.Context, ctx context.Context, lang string) error {
	userID := c.Sender().ID
	if err := b.sessions.Enter(ctx, userID, stateRouteConfirm); err != nil {
		return err
	}

	data := b.sessions.Session(ctx, userID)
	summary := b.routeSummary(ctx, lang, userID, data.Fields)

	markup := inlineButtonsRow(
		inlineBtn{Text: b.tr.T(lang, locale.RouteConfirmButton), Unique: btnRouteSend.Unique},
		inlineBtn{Text: b.tr.T(lang, locale.BtnCancel), Unique: btnRouteCancel.Unique},
	)
	return c.Send(summary, markup)
}

// routeSummary renders the collected fields for confirmation.
func (b *Bot) routeSummary(ctx context.Context, lang string, userID int64, fields map[string]string) string {
	terminalName := fields[wizard.FieldTerminalID]
	if id, err := strconv.ParseInt(terminalName, 10, 64); err == nil {
		token := b.sessions.Preserved(ctx, userID, session.KeyAccessToken)
		if name := b.terminals.NameByID(ctx, token, id); name != "" {
			terminalName = name
		}
	}
	return b.tr.Tf(lang, locale.RouteSummary, map[string]any{
		"Truck":     fields[wizard.FieldTruckNumber],
		"Start":     fields[wizard.FieldStartLocation],
		"Terminal":  terminalName,
		"Container": fields[wizard.FieldContainerName],
		"Size":      fields[wizard.FieldContainerSize],
		"Type":      fields[wizard.FieldContainerType],
		"ETA":       fields[wizard.FieldETA],
	})
}

// onRouteSend finalizes the route. At most one finalize runs per session; a
// second press while one is in flight is ignored.
func (b *Bot) onRouteSend(c tele.Context) error {
	ctx := buildContext(c)
	userID := c.Sender().ID
	lang := b.language(ctx, userID)

	if b.sessions.State(ctx, userID) != stateRouteConfirm {
		return c.Respond()
	}
	if !b.sessions.BeginFinalize(userID) {
		return c.Respond()
	}
	defer b.sessions.EndFinalize(userID)
	_ = c.Respond()

	verdict := b.fresh.Check(ctx, userID)
	if !verdict.Fresh() {
		return c.Send(b.tr.T(lang, verdictKey(verdict)))
	}

	data := b.sessions.Session(ctx, userID)
	draft, err := wizard.BuildRouteDraft(data.Fields)
	if err != nil {
		logger.Error(ctx, "route", "finalize.incomplete_draft",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		if clearErr := b.sessions.Clear(ctx, userID); clearErr != nil {
			return clearErr
		}
		return c.Send(b.tr.T(lang, locale.RouteCreateRejected), b.mainMenu(lang))
	}

	_ = c.Edit(c.Message().Text) // drop the inline buttons
	if err := c.Send(b.tr.T(lang, locale.RouteCreating)); err != nil {
		return err
	}

	token := data.Preserved[session.KeyAccessToken]
	err = b.api.CreateRoute(ctx, draft.Request(userID), token)
	switch {
	case err == nil:
		if clearErr := b.sessions.Clear(ctx, userID); clearErr != nil {
			return clearErr
		}
		logger.Info(ctx, "route", "created",
			slog.Int64("user_id", userID),
			slog.String("truck", draft.TruckNumber),
			slog.Int64("terminal_id", draft.TerminalID),
		)
		return c.Send(b.tr.T(lang, locale.RouteCreated), b.mainMenu(lang))

	case api.IsRetryable(err):
		// Keep the session at the confirm step so the user can retry.
		logger.Warn(ctx, "route", "finalize.retryable",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		markup := inlineButtonsRow(
			inlineBtn{Text: b.tr.T(lang, locale.RouteConfirmButton), Unique: btnRouteSend.Unique},
			inlineBtn{Text: b.tr.T(lang, locale.BtnCancel), Unique: btnRouteCancel.Unique},
		)
		return c.Send(b.tr.T(lang, locale.RouteCreateFailed), markup)

	default:
		logger.Warn(ctx, "route", "finalize.rejected",
			slog.Int64("user_id", userID),
			slog.Int("status", api.StatusOf(err)),
			slog.String("err", err.Error()),
		)
		if clearErr := b.sessions.Clear(ctx, userID); clearErr != nil {
			return clearErr
		}
		return c.Send(b.tr.T(lang, locale.RouteCreateRejected), b.mainMenu(lang))
	}
}
