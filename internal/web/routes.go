package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skinstric/onboarding/internal/web/handlers"
	"github.com/skinstric/onboarding/internal/web/middleware"
	"github.com/skinstric/onboarding/internal/web/static"
)

func (s *Server) setupRoutes() {
	pagesHandler := handlers.NewPagesHandler(s.deps)
	entryHandler := handlers.NewEntryHandler(s.deps)
	cameraHandler := handlers.NewCameraHandler(s.deps)
	galleryHandler := handlers.NewGalleryHandler(s.deps)
	demographicsHandler := handlers.NewDemographicsHandler(s.deps)

	// Health check and assets (no visitor session)
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/assets/*", s.serveAssets())
	s.router.NotFound(s.deps.NotFound)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Visitor(s.sessionManager))

		r.Get("/", pagesHandler.Home)

		// Entry wizard
		r.Get("/enter", entryHandler.Show)
		r.Post("/enter", entryHandler.Act)

		// Testing method
		r.Get("/testing", pagesHandler.Testing)
		r.Get("/testing/camera", cameraHandler.Show)
		r.Get("/testing/gallery", galleryHandler.Show)
		r.Post("/testing/gallery", galleryHandler.Upload)

		// Review
		r.Get("/demographics", demographicsHandler.Show)
		r.Post("/demographics", demographicsHandler.Act)
		r.Get("/analysis", pagesHandler.Analysis)

		// Camera bridge
		r.Route("/api/v1/camera", func(r chi.Router) {
			r.Get("/", cameraHandler.State)
			r.Post("/acquire", cameraHandler.Acquire)
			r.Post("/retry", cameraHandler.Retry)
			r.Post("/capture", cameraHandler.Capture)
			r.Post("/proceed", cameraHandler.Proceed)
			r.Post("/back", cameraHandler.Back)
			r.Post("/close", cameraHandler.Close)
		})
	})
}

// serveAssets serves the embedded stylesheet and scripts.
func (s *Server) serveAssets() http.Handler {
	files := http.StripPrefix("/assets/", http.FileServer(static.GetFileSystem()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}
