package handlers

import (
	"net/http"

	"github.com/skinstric/onboarding/internal/demographics"
)

// PagesHandler serves the static steps of the flow.
type PagesHandler struct {
	*Deps
}

// NewPagesHandler creates the handler for home, testing and analysis.
func NewPagesHandler(d *Deps) *PagesHandler {
	return &PagesHandler{Deps: d}
}

// Home renders the landing page.
func (h *PagesHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home.html", h.page("home", "", "Intro"))
}

// Testing renders the camera/gallery chooser. Arriving here unmounts any camera.
func (h *PagesHandler) Testing(w http.ResponseWriter, r *http.Request) {
	_, flow := h.visitor(r)
	flow.CloseCamera(0)
	h.render(w, http.StatusOK, "testing.html", h.page("testing", "Start analysis", "Intro"))
}

type analysisRow struct {
	Title string
	Pick  demographics.Pick
}

type analysisView struct {
	Page
	Confirmed bool
	Rows      []analysisRow
}

// Analysis renders the confirmed demographics.
func (h *PagesHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	visitor, _ := h.visitor(r)
	picks, ok := visitor.Demographics(r.Context())

	view := analysisView{Page: h.page("analysis", "Analysis", "Analysis"), Confirmed: ok}
	if ok {
		for _, c := range demographics.Categories {
			view.Rows = append(view.Rows, analysisRow{Title: c.Title(), Pick: picks.Get(c)})
		}
	}
	h.render(w, http.StatusOK, "analysis.html", view)
}
