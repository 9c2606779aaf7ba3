package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and maintain the visitor store",
}

var storeSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired short-lived values",
	Long: `Delete every stored value whose session lifetime has passed.
"serve" does this periodically; run it from cron when the server is down.`,
	Args: cobra.NoArgs,
	RunE: runStoreSweep,
}

var storeShowCmd = &cobra.Command{
	Use:   "show <visitor-id>",
	Short: "Print what is stored for a visitor",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreShow,
}

func init() {
	rootCmd.AddCommand(storeCmd)
	storeCmd.AddCommand(storeSweepCmd)
	storeCmd.AddCommand(storeShowCmd)
}

func runStoreSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer st.Backend().Close()

	removed, err := st.Backend().DeleteExpired(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweeping store: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired values\n", removed)
	return nil
}

func runStoreShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Backend().Close()

	visitor := st.Visitor(args[0])
	out := cmd.OutOrStdout()

	form := visitor.PhaseOne(ctx)
	fmt.Fprintf(out, "Name:     %s\n", form.Name)
	fmt.Fprintf(out, "Location: %s\n", form.Location)

	if image, ok := visitor.Image(ctx); ok {
		fmt.Fprintf(out, "Image:    %d bytes (base64)\n", len(image))
	} else {
		fmt.Fprintln(out, "Image:    none")
	}

	if picks, ok := visitor.Demographics(ctx); ok {
		fmt.Fprintf(out, "Race:     %s (%g%%)\n", picks.Race.Label, picks.Race.Value)
		fmt.Fprintf(out, "Age:      %s (%g%%)\n", picks.Age.Label, picks.Age.Value)
		fmt.Fprintf(out, "Sex:      %s (%g%%)\n", picks.Sex.Label, picks.Sex.Value)
	} else {
		fmt.Fprintln(out, "Demographics: not confirmed")
	}
	return nil
}
