package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skinstric/onboarding/internal/config"
	"github.com/skinstric/onboarding/internal/constants"
	"github.com/skinstric/onboarding/internal/skinstric"
	"github.com/skinstric/onboarding/internal/store"
	"github.com/skinstric/onboarding/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Skinstric onboarding web server.
The server renders the onboarding pages, keeps each visitor's flow state and
talks to the Skinstric analysis endpoints on the visitor's behalf.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing visitor cookies (overrides WEB_SESSION_SECRET)")
}

// applyServeFlags lets explicit flags override the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.WebConfig) {
	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Host = host
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.SessionSecret = secret
	}
}

// sweepLoop periodically removes expired values and idle visitor flows.
func sweepLoop(ctx context.Context, st *store.Store, server *web.Server, cfg config.StoreConfig, logger *zap.Logger) error {
	if cfg.SweepEvery <= 0 {
		return nil
	}
	ticker := time.NewTicker(cfg.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := st.Backend().DeleteExpired(ctx)
			if err != nil {
				logger.Warn("Store sweep failed", zap.Error(err))
			}
			flows := server.SweepFlows(cfg.SessionTTL)
			logger.Debug("Sweep finished", zap.Int64("values", removed), zap.Int("flows", flows))
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, &cfg.Web)

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Web.SessionSecret == "" {
		logger.Warn("WEB_SESSION_SECRET is not set, using the development secret")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Backend().Close()

	client, err := skinstric.NewClient(cfg.API)
	if err != nil {
		return fmt.Errorf("creating Skinstric client: %w", err)
	}

	server := web.NewServer(cfg, st, client, client, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		return sweepLoop(gctx, st, server, cfg.Store, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), constants.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	fmt.Printf("Starting Skinstric on http://%s\n", cfg.Web.Addr())
	fmt.Println("Press Ctrl+C to stop")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
