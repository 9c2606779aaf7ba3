package entry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/skinstric/onboarding/internal/skinstric"
	"github.com/skinstric/onboarding/internal/validation"
)

// ErrInvalidTransition is returned when an event does not apply to the current state.
var ErrInvalidTransition = errors.New("invalid transition")

// Machine is the wizard state. It is safe for concurrent use; the remote
// submission runs outside the lock (see Submit).
type Machine struct {
	mu          sync.Mutex
	state       State
	form        validation.FormData
	errors      validation.FormErrors
	submitError string
}

// NewMachine starts at the first step, hydrated with previously stored values.
func NewMachine(hydrated validation.FormData) *Machine {
	return &Machine{
		state: FormState{Step: 0},
		form:  hydrated,
	}
}

// View is a consistent snapshot of the machine.
type View struct {
	State       State
	Step        StepKey // current step when in FormState
	StepIndex   int
	Value       string // current step value
	Error       string // current step error
	SubmitError string
	Form        validation.FormData
}

// View returns a snapshot.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{State: m.state, Form: m.form, SubmitError: m.submitError}
	if fs, ok := m.state.(FormState); ok {
		key := Steps[fs.Step]
		v.Step = key
		v.StepIndex = fs.Step
		v.Value = *field(&m.form, key)
		v.Error = *fieldError(&m.errors, key)
	}
	return v
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Input sets the current step's value and returns the whole raw form so the
// caller can mirror it to storage.
func (m *Machine) Input(value string) (validation.FormData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fs, ok := m.state.(FormState)
	if !ok {
		return m.form, fmt.Errorf("%w: input while %s", ErrInvalidTransition, m.state.phase())
	}
	key := Steps[fs.Step]
	*field(&m.form, key) = value
	*fieldError(&m.errors, key) = ""
	return m.form, nil
}

// Next validates the current step. On failure the machine stays put and
// records the inline error. On success it advances, or on the last step moves
// to LoadingState and returns the normalized form to submit.
func (m *Machine) Next() (*Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fs, ok := m.state.(FormState)
	if !ok {
		return nil, fmt.Errorf("%w: next while %s", ErrInvalidTransition, m.state.phase())
	}

	key := Steps[fs.Step]
	err := validation.ValidateNameOrLocation(*field(&m.form, key))
	*fieldError(&m.errors, key) = validation.Message(err)
	if err != nil {
		return nil, nil
	}

	if fs.Step < len(Steps)-1 {
		m.state = FormState{Step: fs.Step + 1}
		return nil, nil
	}

	m.submitError = ""
	m.state = LoadingState{}
	return &Submission{Form: m.form.Normalized()}, nil
}

// Complete finishes a submission: confirm on success, back to the last form
// step with the failure message otherwise.
func (m *Machine) Complete(result skinstric.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.(LoadingState); !ok {
		return fmt.Errorf("%w: complete while %s", ErrInvalidTransition, m.state.phase())
	}

	if !result.Success {
		m.submitError = result.Error
		m.state = FormState{Step: len(Steps) - 1}
		return nil
	}

	m.form = m.form.Normalized()
	m.state = ConfirmState{}
	return nil
}

// Back handles Escape and the Back button.
func (m *Machine) Back() Navigation {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch s := m.state.(type) {
	case ConfirmState:
		m.state = FormState{Step: len(Steps) - 1}
	case LoadingState:
		// submission in flight is not cancelable
	case FormState:
		if s.Step == 0 {
			return NavigatePrevious
		}
		m.state = FormState{Step: s.Step - 1}
	}
	return Stay
}

// Proceed leaves the confirm phase.
func (m *Machine) Proceed() (Navigation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.state.(ConfirmState); !ok {
		return Stay, fmt.Errorf("%w: proceed while %s", ErrInvalidTransition, m.state.phase())
	}
	return NavigateNext, nil
}
