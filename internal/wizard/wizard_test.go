package wizard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/khamraev/truck2terminal/internal/session"
)

var cities = []string{"Tashkent", "Samarkand", "Bukhara"}

func testDefinition() *Definition {
	return &Definition{
		Name: "route",
		Steps: []Step{
			{
				State:      session.State("route:truck_number"),
				Accepts:    KindText,
				Key:        FieldTruckNumber,
				PromptKey:  "PromptTruck",
				InvalidKey: "InvalidTruck",
				Validate: func(_ context.Context, _ int64, raw string) (string, error) {
					v := strings.TrimSpace(raw)
					if v == "" {
						return "", errors.New("empty")
					}
					return v, nil
				},
			},
			{
				State:      session.State("route:start_location"),
				Accepts:    KindChoice,
				Key:        FieldStartLocation,
				PromptKey:  "PromptStart",
				InvalidKey: "InvalidStart",
				Choices: func(_ context.Context, _ int64) []string {
					return cities
				},
			},
			{
				State:      session.State("route:eta"),
				Accepts:    KindDate,
				Key:        FieldETA,
				PromptKey:  "PromptETA",
				InvalidKey: "InvalidETA",
				Validate: func(_ context.Context, _ int64, raw string) (string, error) {
					t, ok := ParseFlexibleDate(raw)
					if !ok {
						return "", errors.New("bad date")
					}
					return t.Format("2006-01-02 15:04"), nil
				},
			},
		},
	}
}

func newRunner(t *testing.T) (*Runner, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore(), time.Hour, nil)
	return NewRunner(testDefinition(), mgr), mgr
}

func TestRunnerHappyPath(t *testing.T) {
	ctx := context.Background()
	r, mgr := newRunner(t)

	first, err := r.Start(ctx, 1)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.Key != FieldTruckNumber {
		t.Fatalf("first step = %s", first.Key)
	}

	res, err := r.Handle(ctx, 1, Input{Kind: KindText, Text: " 01A123BC "})
	if err != nil {
		t.Fatalf("handle truck: %v", err)
	}
	if res.Outcome != OutcomeAdvanced {
		t.Fatalf("outcome = %v, want advanced", res.Outcome)
	}
	if res.Next.Key != FieldStartLocation {
		t.Fatalf("next = %s", res.Next.Key)
	}

	res, err = r.Handle(ctx, 1, Input{Kind: KindChoice, Text: "Samarkand"})
	if err != nil {
		t.Fatalf("handle city: %v", err)
	}
	if res.Outcome != OutcomeAdvanced {
		t.Fatalf("outcome = %v, want advanced", res.Outcome)
	}

	res, err = r.Handle(ctx, 1, Input{Kind: KindDate, Text: "2025-07-01 09:30"})
	if err != nil {
		t.Fatalf("handle eta: %v", err)
	}
	if res.Outcome != OutcomeComplete {
		t.Fatalf("outcome = %v, want complete", res.Outcome)
	}

	data := mgr.Session(ctx, 1)
	want := map[string]string{
		FieldTruckNumber:   "01A123BC",
		FieldStartLocation: "Samarkand",
		FieldETA:           "2025-07-01 09:30",
	}
	for k, v := range want {
		if data.Fields[k] != v {
			t.Fatalf("field %s = %q, want %q", k, data.Fields[k], v)
		}
	}
	if len(data.Fields) != len(want) {
		t.Fatalf("collected %d fields, want %d", len(data.Fields), len(want))
	}
}

func TestRunnerRejectsWithoutStateChange(t *testing.T) {
	ctx := context.Background()
	r, mgr := newRunner(t)

	if _, err := r.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Handle(ctx, 1, Input{Kind: KindText, Text: "01A123BC"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	stateBefore := mgr.State(ctx, 1)

	tests := []struct {
		name string
		in   Input
		want Outcome
	}{
		{"wrong kind", Input{Kind: KindContact, Phone: "+998901112233"}, OutcomeIgnored},
		{"option not offered", Input{Kind: KindChoice, Text: "Atlantis"}, OutcomeInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Handle(ctx, 1, tt.in)
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if res.Outcome != tt.want {
				t.Fatalf("outcome = %v, want %v", res.Outcome, tt.want)
			}
			if got := mgr.State(ctx, 1); got != stateBefore {
				t.Fatalf("state changed to %s on rejected input", got)
			}
			if _, ok := mgr.Field(ctx, 1, FieldStartLocation); ok {
				t.Fatal("rejected input must not be stored")
			}
		})
	}
}

func TestRunnerOutsideWizard(t *testing.T) {
	ctx := context.Background()
	r, _ := newRunner(t)

	_, err := r.Handle(ctx, 1, Input{Kind: KindText, Text: "hello"})
	if !errors.Is(err, ErrNotInWizard) {
		t.Fatalf("err = %v, want ErrNotInWizard", err)
	}
}

func TestCancelMidWizardPreservesWhitelist(t *testing.T) {
	ctx := context.Background()
	r, mgr := newRunner(t)

	if err := mgr.SetPreserved(ctx, 1, session.KeyAccessToken, "tok"); err != nil {
		t.Fatalf("preserve: %v", err)
	}
	if _, err := r.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Handle(ctx, 1, Input{Kind: KindText, Text: "01A123BC"}); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if err := mgr.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mgr.InProgress(ctx, 1) {
		t.Fatal("cancel must leave no active state")
	}
	if got := mgr.Preserved(ctx, 1, session.KeyAccessToken); got != "tok" {
		t.Fatalf("preserved token = %q, want tok", got)
	}
	if _, ok := mgr.Field(ctx, 1, FieldTruckNumber); ok {
		t.Fatal("collected fields must be wiped by cancel")
	}
}

func TestValidInputsRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("valid path collects exactly the path fields", prop.ForAll(
		func(truck string, cityIdx int, dayOffset int) bool {
			ctx := context.Background()
			mgr := session.NewManager(session.NewMemoryStore(), time.Hour, nil)
			r := NewRunner(testDefinition(), mgr)

			if _, err := r.Start(ctx, 7); err != nil {
				return false
			}

			city := cities[cityIdx%len(cities)]
			eta := time.Date(2025, 7, 1+dayOffset%20, 8, 0, 0, 0, time.Local).Format("2006-01-02 15:04")

			inputs := []Input{
				{Kind: KindText, Text: truck},
				{Kind: KindChoice, Text: city},
				{Kind: KindDate, Text: eta},
			}
			var last Result
			for _, in := range inputs {
				res, err := r.Handle(ctx, 7, in)
				if err != nil {
					return false
				}
				last = res
			}
			if last.Outcome != OutcomeComplete {
				return false
			}

			data := mgr.Session(ctx, 7)
			return data.Fields[FieldTruckNumber] == strings.TrimSpace(truck) &&
				data.Fields[FieldStartLocation] == city &&
				data.Fields[FieldETA] == eta &&
				len(data.Fields) == 3
		},
		gen.RegexMatch(`[0-9]{2}[A-Z][0-9]{3}[A-Z]{2}`),
		gen.IntRange(0, 2),
		gen.IntRange(0, 19),
	))

	properties.TestingRun(t)
}
