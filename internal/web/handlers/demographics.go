package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/skinstric/onboarding/internal/demographics"
	"github.com/skinstric/onboarding/internal/store"
)

// User-visible failures of the review page.
const (
	msgNoImage        = "No captured image found."
	msgAnalysisFailed = "Failed to analyze image."
)

// DemographicsHandler serves the review of the phase two result.
type DemographicsHandler struct {
	*Deps
}

// NewDemographicsHandler creates the review handler.
func NewDemographicsHandler(d *Deps) *DemographicsHandler {
	return &DemographicsHandler{Deps: d}
}

type categoryTab struct {
	Key        demographics.Category
	Title      string
	Active     bool
	Selected   demographics.Pick
	Overridden bool
}

type optionRow struct {
	demographics.Option
	Selected bool
}

type demographicsView struct {
	Page
	Error   string
	Tabs    []categoryTab
	Active  categoryTab
	Options []optionRow
}

var errNoImage = errors.New("no captured image")

// review returns the visitor's cached review, fetching it once per stored
// image. It must be called without flow.mu held; concurrent callers share
// one phase two request.
func (h *DemographicsHandler) review(r *http.Request, visitor *store.Visitor, flow *Flow) (*demographics.Review, error) {
	if rev, _ := flow.cachedReview(); rev != nil {
		return rev, nil
	}
	v, err, _ := flow.fetch.Do("review", func() (any, error) {
		rev, epoch := flow.cachedReview()
		if rev != nil {
			return rev, nil
		}
		image, ok := visitor.Image(r.Context())
		if !ok {
			return nil, errNoImage
		}
		resp, err := h.Analyzer.AnalyzeImage(r.Context(), image)
		if err != nil {
			return nil, err
		}
		return flow.installReview(demographics.NewReview(resp.Data), epoch), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*demographics.Review), nil
}

func (h *DemographicsHandler) showError(w http.ResponseWriter, visitorID string, err error) {
	view := demographicsView{Page: h.page("demographics", "Demographics", "Analysis")}
	status := http.StatusOK
	if errors.Is(err, errNoImage) {
		view.Error = msgNoImage
	} else {
		h.Logger.Warn("Phase two analysis failed", zap.String("visitor", visitorID), zap.Error(err))
		view.Error = msgAnalysisFailed
		status = http.StatusBadGateway
	}
	h.render(w, status, "demographics.html", view)
}

// Show renders the review with the ?tab= category active.
func (h *DemographicsHandler) Show(w http.ResponseWriter, r *http.Request) {
	visitor, flow := h.visitor(r)
	rev, err := h.review(r, visitor, flow)
	if err != nil {
		h.showError(w, visitor.ID(), err)
		return
	}

	flow.mu.Lock()
	active := demographics.ParseCategory(r.URL.Query().Get("tab"))
	view := demographicsView{Page: h.page("demographics", "Demographics", "Analysis")}
	for _, c := range demographics.Categories {
		tab := categoryTab{
			Key:        c,
			Title:      c.Title(),
			Active:     c == active,
			Selected:   rev.Selected(c),
			Overridden: rev.Overridden(c),
		}
		view.Tabs = append(view.Tabs, tab)
		if tab.Active {
			view.Active = tab
		}
	}
	selected := rev.SelectedKey(active)
	for _, opt := range rev.Options(active) {
		view.Options = append(view.Options, optionRow{Option: opt, Selected: opt.Key == selected})
	}
	flow.mu.Unlock()
	h.render(w, http.StatusOK, "demographics.html", view)
}

// Act handles pick, reset and confirm.
func (h *DemographicsHandler) Act(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	visitor, flow := h.visitor(r)
	rev, err := h.review(r, visitor, flow)
	if err != nil {
		h.showError(w, visitor.ID(), err)
		return
	}

	back := "/demographics?tab=" + url.QueryEscape(string(demographics.ParseCategory(r.URL.Query().Get("tab"))))

	switch r.FormValue("action") {
	case "pick":
		category := demographics.ParseCategory(r.FormValue("category"))
		flow.mu.Lock()
		err := rev.Pick(category, r.FormValue("key"))
		flow.mu.Unlock()
		if err != nil {
			h.renderError(w, http.StatusBadRequest, "Unknown option.")
			return
		}
		redirect(w, r, back)

	case "reset":
		flow.mu.Lock()
		rev.Reset()
		flow.mu.Unlock()
		redirect(w, r, back)

	case "confirm":
		flow.mu.Lock()
		picks := rev.Final()
		flow.mu.Unlock()
		if err := visitor.SaveDemographics(r.Context(), picks); err != nil {
			h.Logger.Warn("Failed to store confirmed demographics",
				zap.String("visitor", visitor.ID()), zap.Error(err))
		}
		redirect(w, r, "/analysis")

	default:
		h.renderError(w, http.StatusBadRequest, "unknown action")
	}
}
