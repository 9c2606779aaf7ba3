package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/skinstric/onboarding/internal/entry"
	"github.com/skinstric/onboarding/internal/skinstric"
	"github.com/skinstric/onboarding/internal/tui"
)

var enterCmd = &cobra.Command{
	Use:   "enter",
	Short: "Run the name and location wizard in the terminal",
	Long: `Run the entry wizard in the terminal. Type your name, press Enter, type
where you are from and press Enter again to submit. Escape goes back a step.

The answers are stored for the given visitor id, so a later "serve" session
using the same store is pre-filled.`,
	RunE: runEnter,
}

func init() {
	rootCmd.AddCommand(enterCmd)
	enterCmd.Flags().String("visitor", "local", "Visitor id the answers are stored under")
}

func runEnter(cmd *cobra.Command, args []string) error {
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

	client, err := skinstric.NewClient(cfg.API)
	if err != nil {
		return fmt.Errorf("creating Skinstric client: %w", err)
	}

	visitor := st.Visitor(mustGetString(cmd, "visitor"))
	machine := entry.NewMachine(visitor.PhaseOne(ctx))
	wizard := tui.NewWizard(ctx, machine, tui.Options{
		Submitter: client,
		Persister: visitor,
		Delay:     cfg.Flow.FeedbackDelay,
		Content:   cfg.Content,
	})

	final, err := tea.NewProgram(wizard).Run()
	if err != nil {
		return fmt.Errorf("running wizard: %w", err)
	}

	out := cmd.OutOrStdout()
	switch final.(tui.Wizard).Outcome() {
	case tui.OutcomeNext:
		form := machine.View().Form
		fmt.Fprintf(out, "Saved %s from %s. Continue with: skinstric analyze <image>\n", form.Name, form.Location)
	case tui.OutcomePrevious:
		fmt.Fprintln(out, "Left the wizard.")
	default:
		fmt.Fprintln(out, "Cancelled.")
	}
	return nil
}
