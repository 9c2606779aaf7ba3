package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/skinstric/onboarding/internal/constants"
	"github.com/skinstric/onboarding/internal/entry"
	"github.com/skinstric/onboarding/internal/validation"
)

// EntryHandler serves the name/location wizard at /enter.
type EntryHandler struct {
	*Deps
}

// NewEntryHandler creates the wizard handler.
func NewEntryHandler(d *Deps) *EntryHandler {
	return &EntryHandler{Deps: d}
}

type entryView struct {
	Page
	Phase       string
	StepIndex   int
	StepCount   int
	Placeholder string
	Value       string
	Error       string
	SubmitError string
}

// Show renders the wizard. ?fresh=1 remounts it from the stored form.
func (h *EntryHandler) Show(w http.ResponseWriter, r *http.Request) {
	visitor, flow := h.visitor(r)
	load := func() validation.FormData { return visitor.PhaseOne(r.Context()) }

	if r.URL.Query().Get("fresh") != "" {
		flow.RemountEntry(load)
		redirect(w, r, "/enter")
		return
	}

	v := flow.Entry(load).View()
	view := entryView{
		Page:        h.page("enter", "Introduce yourself", "Intro"),
		Phase:       entry.Phase(v.State),
		StepIndex:   v.StepIndex,
		StepCount:   len(entry.Steps),
		Placeholder: h.Config.Content.Placeholder(string(v.Step)),
		Value:       v.Value,
		Error:       v.Error,
		SubmitError: v.SubmitError,
	}
	if view.Phase == "loading" {
		view.Refresh = constants.LoadingRefreshSeconds
	}
	h.render(w, http.StatusOK, "enter.html", view)
}

// Act handles the wizard form posts: next, back and proceed.
func (h *EntryHandler) Act(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	visitor, flow := h.visitor(r)
	m := flow.Entry(func() validation.FormData { return visitor.PhaseOne(r.Context()) })

	switch r.FormValue("action") {
	case "next":
		if form, err := m.Input(r.FormValue("value")); err == nil {
			visitor.SavePhaseOne(r.Context(), form)
		}
		sub, err := m.Next()
		if err != nil {
			h.Logger.Debug("Ignoring wizard event", zap.String("event", "next"), zap.Error(err))
		}
		if sub != nil {
			// The submission outlives the request that started it.
			ctx := context.WithoutCancel(r.Context())
			h.Flows.Go(func() {
				result := entry.Submit(ctx, m, sub, h.Submitter, visitor, h.Config.Flow.FeedbackDelay)
				if !result.Success {
					h.Logger.Warn("Phase one submission failed",
						zap.String("visitor", visitor.ID()),
						zap.String("error", sanitizeForLog(result.Error)))
				}
			})
		}
		redirect(w, r, "/enter")

	case "back":
		if m.Back() == entry.NavigatePrevious {
			redirect(w, r, "/")
			return
		}
		redirect(w, r, "/enter")

	case "proceed":
		nav, err := m.Proceed()
		if err != nil || nav != entry.NavigateNext {
			redirect(w, r, "/enter")
			return
		}
		redirect(w, r, "/testing")

	default:
		h.renderError(w, http.StatusBadRequest, "unknown action")
	}
}
