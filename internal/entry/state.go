// Package entry implements the two-step name/location wizard as a finite-state
// machine: form(step) → loading → confirm.
package entry

import "github.com/skinstric/onboarding/internal/validation"

// State is one of FormState, LoadingState or ConfirmState.
type State interface {
	phase() string
}

// FormState shows the input for Steps[Step].
type FormState struct {
	Step int
}

// LoadingState waits for the phase one submission. It cannot be left by the visitor.
type LoadingState struct{}

// ConfirmState is reached after a successful submission.
type ConfirmState struct{}

func (FormState) phase() string    { return "form" }
func (LoadingState) phase() string { return "loading" }
func (ConfirmState) phase() string { return "confirm" }

// Phase returns "form", "loading" or "confirm".
func Phase(s State) string {
	return s.phase()
}

// StepKey names a wizard field.
type StepKey string

const (
	StepName     StepKey = "name"
	StepLocation StepKey = "location"
)

// Steps are the wizard fields in order.
var Steps = []StepKey{StepName, StepLocation}

// Navigation tells the caller to leave the wizard.
type Navigation int

const (
	Stay Navigation = iota
	NavigatePrevious
	NavigateNext
)

// Submission is returned by Next when the last step validates.
type Submission struct {
	Form validation.FormData
}

func field(form *validation.FormData, key StepKey) *string {
	if key == StepLocation {
		return &form.Location
	}
	return &form.Name
}

func fieldError(errs *validation.FormErrors, key StepKey) *string {
	if key == StepLocation {
		return &errs.Location
	}
	return &errs.Name
}
