// Package wizard implements the table-driven conversation state machine:
// each wizard is an ordered list of steps forming a directed path from the
// first field to a terminal finalize action, with no cycles back except
// through cancellation.
package wizard

import (
	"context"
	"errors"

	"github.com/khamraev/truck2terminal/internal/session"
)

// Kind is the single input type a step accepts. Any other input re-prompts
// without a state change.
type Kind int

const (
	// KindText accepts a free-form text message.
	KindText Kind = iota + 1
	// KindContact accepts a shared contact (phone number).
	KindContact
	// KindChoice accepts one of the step's offered options.
	KindChoice
	// KindDate accepts a calendar date entered as text.
	KindDate
	// KindCoordinates accepts a latitude/longitude pair.
	KindCoordinates
)

// Input is one normalized user event fed into the wizard.
type Input struct {
	Kind      Kind
	Text      string
	Phone     string
	Latitude  float64
	Longitude float64
}

// ValidateFunc normalizes a raw value into its stored form. A non-nil error
// keeps the wizard at the same step and triggers the step's invalid message.
type ValidateFunc func(ctx context.Context, userID int64, raw string) (string, error)

// ChoicesFunc supplies the valid options for a choice step at state entry.
// Dynamic option sets (the terminal list) are fetched here.
type ChoicesFunc func(ctx context.Context, userID int64) []string

// Step is one state of a wizard path.
type Step struct {
	State session.State
	// Accepts is the only input kind this step consumes.
	Accepts Kind
	// Key is the fixed collected-fields key the validated value is stored under.
	Key string
	// PromptKey and InvalidKey are locale message ids.
	PromptKey  string
	InvalidKey string
	Choices    ChoicesFunc
	Validate   ValidateFunc
}

// Definition is an ordered wizard path.
type Definition struct {
	Name  string
	Steps []Step
}

// First returns the entry step. Definitions are never empty.
func (d *Definition) First() Step {
	return d.Steps[0]
}

// StepAt locates the step bound to a state.
func (d *Definition) StepAt(st session.State) (Step, bool) {
	for _, s := range d.Steps {
		if s.State == st {
			return s, true
		}
	}
	return Step{}, false
}

// NextAfter returns the step following st; ok is false when st is the last
// step and the wizard is ready to finalize.
func (d *Definition) NextAfter(st session.State) (Step, bool) {
	for i, s := range d.Steps {
		if s.State == st {
			if i+1 < len(d.Steps) {
				return d.Steps[i+1], true
			}
			return Step{}, false
		}
	}
	return Step{}, false
}

// Owns reports whether the state belongs to this wizard.
func (d *Definition) Owns(st session.State) bool {
	_, ok := d.StepAt(st)
	return ok
}

// Outcome classifies the result of feeding one input into the wizard.
type Outcome int

const (
	// OutcomeIgnored means the input kind does not match the step and no
	// validation message applies; the turn is answered with a re-prompt.
	OutcomeIgnored Outcome = iota
	// OutcomeInvalid means the value failed validation; same step re-prompts.
	OutcomeInvalid
	// OutcomeAdvanced means the value was stored and the wizard moved to Next.
	OutcomeAdvanced
	// OutcomeComplete means the last field was stored; finalize may run.
	OutcomeComplete
)

// Result describes one handled input.
type Result struct {
	Outcome Outcome
	// Step is the step that consumed (or rejected) the input.
	Step Step
	// Next is populated when Outcome is OutcomeAdvanced.
	Next Step
}

// ErrNotInWizard is returned when the session state does not belong to the
// definition being driven.
var ErrNotInWizard = errors.New("wizard: session state outside wizard")

// Runner drives one wizard definition over the session manager.
type Runner struct {
	def *Definition
	mgr *session.Manager
}

// NewRunner binds a definition to the session manager.
func NewRunner(def *Definition, mgr *session.Manager) *Runner {
	return &Runner{def: def, mgr: mgr}
}

// Definition exposes the bound wizard path.
func (r *Runner) Definition() *Definition { return r.def }

// Start enters the wizard's first step and returns it so the caller can
// prompt. The expiry timer starts here.
func (r *Runner) Start(ctx context.Context, userID int64) (Step, error) {
	first := r.def.First()
	if err := r.mgr.Enter(ctx, userID, first.State); err != nil {
		return Step{}, err
	}
	return first, nil
}

// Handle feeds one input into the wizard at the user's current step. Valid
// input stores the value under the step key and advances; anything else
// leaves the state untouched.
func (r *Runner) Handle(ctx context.Context, userID int64, in Input) (Result, error) {
	st := r.mgr.State(ctx, userID)
	step, ok := r.def.StepAt(st)
	if !ok {
		return Result{}, ErrNotInWizard
	}

	if in.Kind != step.Accepts {
		return Result{Outcome: OutcomeIgnored, Step: step}, nil
	}

	raw := rawValue(step, in)
	value := raw
	if step.Choices != nil {
		if !contains(step.Choices(ctx, userID), raw) {
			return Result{Outcome: OutcomeInvalid, Step: step}, nil
		}
	}
	if step.Validate != nil {
		var err error
		value, err = step.Validate(ctx, userID, raw)
		if err != nil {
			return Result{Outcome: OutcomeInvalid, Step: step}, nil
		}
	}

	if err := r.mgr.SetField(ctx, userID, step.Key, value); err != nil {
		return Result{}, err
	}

	next, more := r.def.NextAfter(step.State)
	if !more {
		return Result{Outcome: OutcomeComplete, Step: step}, nil
	}
	if err := r.mgr.Enter(ctx, userID, next.State); err != nil {
		return Result{}, err
	}
	return Result{Outcome: OutcomeAdvanced, Step: step, Next: next}, nil
}

func rawValue(step Step, in Input) string {
	switch step.Accepts {
	case KindContact:
		return in.Phone
	default:
		return in.Text
	}
}

func contains(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
