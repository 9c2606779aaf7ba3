package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/skinstric/onboarding/internal/config"
	"github.com/skinstric/onboarding/internal/constants"
	"github.com/skinstric/onboarding/internal/entry"
	"github.com/skinstric/onboarding/internal/logging"
	"github.com/skinstric/onboarding/internal/store"
	"github.com/skinstric/onboarding/internal/web/handlers"
	"github.com/skinstric/onboarding/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	config         *config.Config
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
	deps           *handlers.Deps
	logger         *zap.Logger
}

// NewServer creates a new web server. submitter and analyzer are normally the
// same remote client.
func NewServer(cfg *config.Config, st *store.Store, submitter entry.Submitter, analyzer handlers.Analyzer, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger)
	r := chi.NewRouter()

	sessionManager := middleware.NewSessionManager(cfg.Web.SessionSecret, cfg.Web.SecureCookies, cfg.Web.VisitorMaxAge)

	s := &Server{
		config:         cfg,
		router:         r,
		sessionManager: sessionManager,
		logger:         logger,
		deps: &handlers.Deps{
			Config:    cfg,
			Store:     st,
			Submitter: submitter,
			Analyzer:  analyzer,
			Flows:     handlers.NewFlows(),
			Logger:    logger,
		},
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(constants.RequestTimeout))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Web.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      constants.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server and waits for in-flight
// submissions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down web server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.deps.Flows.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for submissions: %w", ctx.Err())
	}
	s.deps.Flows.Sweep(0)
	return nil
}

// SweepFlows drops visitor flows idle for longer than idle.
func (s *Server) SweepFlows(idle time.Duration) int {
	return s.deps.Flows.Sweep(idle)
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
