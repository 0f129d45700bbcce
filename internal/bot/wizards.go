package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/session"
	"github.com/khamraev/truck2terminal/internal/wizard"
)

// Wizard states. The prefix groups states by flow; Owns checks rely on the
// exact values stored in the session.
const (
	stateRegPhone = session.State("reg:phone")

	stateRouteTruck         = session.State("route:truck_number")
	stateRouteStart         = session.State("route:start_location")
	stateRouteTerminal      = session.State("route:terminal")
	stateRouteContainerName = session.State("route:container_name")
	stateRouteContainerSize = session.State("route:container_size")
	stateRouteContainerType = session.State("route:container_type")
	stateRouteETA           = session.State("route:eta")
	stateRouteConfirm       = session.State("route:confirm")

	stateSupportQuestion = session.State("support:question")
	stateSupportReply    = session.State("support:reply")
)

// startLocations are the selectable route origins.
var startLocations = []string{
	"Tashkent", "Navoi", "Samarkand", "Bukhara",
	"Andijan", "Fergana", "Namangan", "Qarshi",
	"Termez", "Urgench", "Nukus", "Jizzakh",
}

var (
	containerSizes = []string{"20", "40"}
	containerTypes = []string{"Laden", "Empty"}
)

var errEmptyValue = errors.New("empty value")

// registrationDefinition is the single-step phone-share wizard. Finalization
// (the auth call) happens in the contact handler once the step completes.
func (b *Bot) registrationDefinition() *wizard.Definition {
	return &wizard.Definition{
		Name: "registration",
		Steps: []wizard.Step{
			{
				State:      stateRegPhone,
				Accepts:    wizard.KindContact,
				Key:        "phone",
				PromptKey:  locale.RegPhonePrompt,
				InvalidKey: locale.RegInvalidPhone,
				Validate: func(_ context.Context, _ int64, raw string) (string, error) {
					phone := strings.TrimSpace(raw)
					if phone == "" {
						return "", errEmptyValue
					}
					return phone, nil
				},
			},
		},
	}
}

// routeDefinition is the route-creation path. The confirm step is entered
// separately once the last field is collected; it is driven by an inline
// callback, not by the step engine.
func (b *Bot) routeDefinition() *wizard.Definition {
	return &wizard.Definition{
		Name: "route",
		Steps: []wizard.Step{
			{
				State:      stateRouteTruck,
				Accepts:    wizard.KindText,
				Key:        wizard.FieldTruckNumber,
				PromptKey:  locale.RoutePromptTruck,
				InvalidKey: locale.RoutePromptTruck,
				Validate: func(_ context.Context, _ int64, raw string) (string, error) {
					v := strings.TrimSpace(raw)
					if v == "" {
						return "", errEmptyValue
					}
					return v, nil
				},
			},
			{
				State:      stateRouteStart,
				Accepts:    wizard.KindChoice,
				Key:        wizard.FieldStartLocation,
				PromptKey:  locale.RoutePromptStart,
				InvalidKey: locale.RouteInvalidStart,
				Choices: func(_ context.Context, _ int64) []string {
					return startLocations
				},
			},
			{
				State:      stateRouteTerminal,
				Accepts:    wizard.KindChoice,
				Key:        wizard.FieldTerminalID,
				PromptKey:  locale.RoutePromptTerminal,
				InvalidKey: locale.RouteInvalidTerminal,
				Choices:    b.terminalChoices,
				Validate:   b.resolveTerminal,
			},
			{
				State:      stateRouteContainerName,
				Accepts:    wizard.KindText,
				Key:        wizard.FieldContainerName,
				PromptKey:  locale.RoutePromptContainerName,
				InvalidKey: locale.RoutePromptContainerName,
				Validate: func(_ context.Context, _ int64, raw string) (string, error) {
					v := strings.TrimSpace(raw)
					if v == "" {
						return "", errEmptyValue
					}
					return v, nil
				},
			},
			{
				State:      stateRouteContainerSize,
				Accepts:    wizard.KindChoice,
				Key:        wizard.FieldContainerSize,
				PromptKey:  locale.RoutePromptContainerSize,
				InvalidKey: locale.RouteInvalidSize,
				Choices: func(_ context.Context, _ int64) []string {
					return containerSizes
				},
			},
			{
				State:      stateRouteContainerType,
				Accepts:    wizard.KindChoice,
				Key:        wizard.FieldContainerType,
				PromptKey:  locale.RoutePromptContainerType,
				InvalidKey: locale.RouteInvalidType,
				Choices: func(_ context.Context, _ int64) []string {
					return containerTypes
				},
				Validate: func(_ context.Context, _ int64, raw string) (string, error) {
					// The backend expects the lowercase form.
					return strings.ToLower(raw), nil
				},
			},
			{
				State:      stateRouteETA,
				Accepts:    wizard.KindDate,
				Key:        wizard.FieldETA,
				PromptKey:  locale.RoutePromptETA,
				InvalidKey: locale.RouteInvalidETA,
				Validate: func(_ context.Context, _ int64, raw string) (string, error) {
					t, ok := wizard.ParseFlexibleDate(raw)
					if !ok {
						return "", errEmptyValue
					}
					return t.Format("2006-01-02 15:04"), nil
				},
			},
		},
	}
}

// terminalChoices supplies the terminal names offered at the terminal step.
// The directory answers from cache, live data, or the built-in set, so the
// wizard never stalls here.
func (b *Bot) terminalChoices(ctx context.Context, userID int64) []string {
	token := b.sessions.Preserved(ctx, userID, session.KeyAccessToken)
	opts := b.terminals.Options(ctx, token)
	names := make([]string, 0, len(opts))
	for _, opt := range opts {
		names = append(names, opt.Name)
	}
	return names
}

// resolveTerminal maps the chosen terminal name to its id for storage.
func (b *Bot) resolveTerminal(ctx context.Context, userID int64, raw string) (string, error) {
	token := b.sessions.Preserved(ctx, userID, session.KeyAccessToken)
	id, ok := b.terminals.Resolve(ctx, token, raw)
	if !ok {
		return "", errEmptyValue
	}
	return strconv.FormatInt(id, 10), nil
}
