package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/skinstric/onboarding/internal/config"
	"github.com/skinstric/onboarding/internal/entry"
	"github.com/skinstric/onboarding/internal/skinstric"
	"github.com/skinstric/onboarding/internal/store"
	"github.com/skinstric/onboarding/internal/web/middleware"
	"github.com/skinstric/onboarding/internal/web/templates"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// Analyzer runs the phase two analysis of a base64 image.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imageBase64 string) (*skinstric.PhaseTwoResponse, error)
}

// Deps are shared by all page handlers.
type Deps struct {
	Config    *config.Config
	Store     *store.Store
	Submitter entry.Submitter
	Analyzer  Analyzer
	Flows     *Flows
	Logger    *zap.Logger
}

// Page is the data every template expects.
type Page struct {
	Title   string
	Section string
	Refresh int
	Copy    config.PageContent
}

func (d *Deps) page(name, title, section string) Page {
	return Page{Title: title, Section: section, Copy: d.Config.Content.Page(name)}
}

// visitor returns the store view and flow of the requesting visitor.
func (d *Deps) visitor(r *http.Request) (*store.Visitor, *Flow) {
	id := middleware.VisitorFromContext(r.Context())
	return d.Store.Visitor(id), d.Flows.Get(id)
}

// render writes an HTML page.
func (d *Deps) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := templates.Render(w, name, data); err != nil {
		d.Logger.Error("Failed to render page", zap.String("page", name), zap.Error(err))
	}
}

type errorView struct {
	Page
	Message string
}

// renderError writes the generic error page.
func (d *Deps) renderError(w http.ResponseWriter, status int, message string) {
	view := errorView{Page: Page{Title: http.StatusText(status)}, Message: message}
	d.render(w, status, "error.html", view)
}

// NotFound renders the error page for unknown routes.
func (d *Deps) NotFound(w http.ResponseWriter, r *http.Request) {
	d.renderError(w, http.StatusNotFound, "This page does not exist.")
}

// redirect answers a form post with 303 See Other.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
