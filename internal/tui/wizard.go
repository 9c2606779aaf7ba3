// Package tui renders the entry wizard in the terminal with bubbletea.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/skinstric/onboarding/internal/config"
	"github.com/skinstric/onboarding/internal/entry"
	"github.com/skinstric/onboarding/internal/skinstric"
)

// Outcome is how the wizard was left.
type Outcome int

const (
	OutcomeNone     Outcome = iota
	OutcomeNext             // proceeded from confirm
	OutcomePrevious         // Escape on the first step
	OutcomeQuit             // Ctrl+C
)

// submittedMsg carries the completed phase one submission.
type submittedMsg struct {
	result skinstric.Result
}

// Wizard is the bubbletea model driving an entry.Machine.
type Wizard struct {
	ctx       context.Context
	machine   *entry.Machine
	submitter entry.Submitter
	persister entry.Persister
	delay     time.Duration
	content   config.Content
	styles    Styles

	input   textinput.Model
	spinner spinner.Model
	outcome Outcome
}

// Options configure a Wizard.
type Options struct {
	Submitter entry.Submitter
	Persister entry.Persister // may be nil
	Delay     time.Duration
	Content   config.Content
}

// NewWizard returns a wizard over m.
func NewWizard(ctx context.Context, m *entry.Machine, opts Options) Wizard {
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Prompt = "› "
	ti.CharLimit = 80
	ti.Width = 40
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.Input
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Kicker

	w := Wizard{
		ctx:       ctx,
		machine:   m,
		submitter: opts.Submitter,
		persister: opts.Persister,
		delay:     opts.Delay,
		content:   opts.Content,
		styles:    styles,
		input:     ti,
		spinner:   sp,
	}
	w.syncInput()
	return w
}

// Outcome reports how the wizard ended.
func (w Wizard) Outcome() Outcome {
	return w.outcome
}

// Machine returns the driven state machine.
func (w Wizard) Machine() *entry.Machine {
	return w.machine
}

func (w Wizard) Init() tea.Cmd {
	return textinput.Blink
}

// syncInput loads the current step's value and placeholder into the input.
func (w *Wizard) syncInput() {
	v := w.machine.View()
	if _, ok := v.State.(entry.FormState); !ok {
		return
	}
	w.input.SetValue(v.Value)
	w.input.CursorEnd()
	w.input.Placeholder = w.content.Placeholder(string(v.Step))
}

func (w Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return w.handleKey(msg)

	case submittedMsg:
		w.syncInput()
		return w, nil

	case spinner.TickMsg:
		if _, loading := w.machine.State().(entry.LoadingState); !loading {
			return w, nil
		}
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return w, cmd
	}

	return w, nil
}

func (w Wizard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		w.outcome = OutcomeQuit
		return w, tea.Quit

	case tea.KeyEsc:
		if w.machine.Back() == entry.NavigatePrevious {
			w.outcome = OutcomePrevious
			return w, tea.Quit
		}
		w.syncInput()
		return w, nil

	case tea.KeyEnter:
		return w.enter()
	}

	if _, ok := w.machine.State().(entry.FormState); !ok {
		return w, nil
	}
	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	if form, err := w.machine.Input(w.input.Value()); err == nil && w.persister != nil {
		w.persister.SavePhaseOne(w.ctx, form)
	}
	return w, cmd
}

func (w Wizard) enter() (tea.Model, tea.Cmd) {
	switch w.machine.State().(type) {
	case entry.ConfirmState:
		if nav, err := w.machine.Proceed(); err == nil && nav == entry.NavigateNext {
			w.outcome = OutcomeNext
			return w, tea.Quit
		}
		return w, nil

	case entry.FormState:
		w.machine.Input(w.input.Value())
		sub, err := w.machine.Next()
		if err != nil {
			return w, nil
		}
		if sub == nil {
			w.syncInput()
			return w, nil
		}
		return w, tea.Batch(w.spinner.Tick, w.submit(sub))
	}
	return w, nil
}

// submit runs the submission and its feedback delay off the update loop.
func (w Wizard) submit(sub *entry.Submission) tea.Cmd {
	ctx, m := w.ctx, w.machine
	submitter, persister, delay := w.submitter, w.persister, w.delay
	return func() tea.Msg {
		return submittedMsg{result: entry.Submit(ctx, m, sub, submitter, persister, delay)}
	}
}

func (w Wizard) View() string {
	v := w.machine.View()
	text := w.content.Page("enter")

	var b strings.Builder
	b.WriteString(w.styles.Header.Render("SKINSTRIC"))
	b.WriteString("\n")
	b.WriteString(w.styles.Kicker.Render(strings.ToUpper(text["kicker"])))
	b.WriteString("\n\n")

	switch v.State.(type) {
	case entry.LoadingState:
		b.WriteString(w.spinner.View() + " " + text["loading"])
	case entry.ConfirmState:
		b.WriteString(w.styles.Done.Render(text["confirm"]))
		b.WriteString("\n\n")
		b.WriteString(w.styles.Hint.Render("Enter to proceed · Esc to go back"))
	default:
		b.WriteString(w.input.View())
		if v.Error != "" {
			b.WriteString("\n" + w.styles.Error.Render(v.Error))
		}
		if v.SubmitError != "" {
			b.WriteString("\n" + w.styles.Error.Render(v.SubmitError))
		}
		b.WriteString("\n\n")
		b.WriteString(w.styles.Hint.Render(text["hint"] + " · Esc to go back"))
	}

	return w.styles.Frame.Render(b.String()) + "\n"
}
