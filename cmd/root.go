package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skinstric/onboarding/internal/config"
	"github.com/skinstric/onboarding/internal/logging"
	"github.com/skinstric/onboarding/internal/store"
)

var (
	captureDir string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "skinstric",
	Short: "Skinstric A.I. skin analysis onboarding",
	Long: `Skinstric runs the onboarding flow of the A.I. skin analysis: it collects
the visitor's name and location, captures a face from the camera or an
uploaded image, sends it to the analysis service and lets the visitor review
the predicted demographics.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig reads the environment and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	cfg.API.CaptureDir = captureDir
	return cfg, nil
}

// openStore opens the configured backend and wraps it in a visitor store.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.Store, error) {
	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store.New(backend, cfg.Store.SessionTTL, logger), nil
}

func newLogger() (*zap.Logger, error) {
	logger, err := logging.New(verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}
