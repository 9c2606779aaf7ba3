package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/skinstric/onboarding/internal/demographics"
	"github.com/skinstric/onboarding/internal/imaging"
	"github.com/skinstric/onboarding/internal/skinstric"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyze a face image and print the predicted demographics",
	Long: `Send an image to the phase two analysis endpoint and print the ranked
race, age and sex predictions.

Supported formats: jpg, jpeg, png, gif, bmp, webp. The image is scaled to
fit SKINSTRIC_MAX_IMAGE_SIZE and re-encoded as JPEG before upload.

Example:
  skinstric analyze selfie.jpg
  skinstric analyze --json selfie.png
  skinstric analyze --visitor local selfie.png   # store image and picks`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Bool("json", false, "Print the raw phase two result as JSON")
	analyzeCmd.Flags().String("visitor", "", "Store the image and predicted picks for this visitor id")
}

// analysisOutput is the --json shape.
type analysisOutput struct {
	Message string                                          `json:"message"`
	Options map[demographics.Category][]demographics.Option `json:"options"`
	Picks   demographics.Picks                              `json:"picks"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	visitorID := mustGetString(cmd, "visitor")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	image, err := imaging.EncodeBase64(data, cfg.Flow.MaxImageSize)
	if err != nil {
		return fmt.Errorf("preparing %s: %w", args[0], err)
	}

	client, err := skinstric.NewClient(cfg.API)
	if err != nil {
		return fmt.Errorf("creating Skinstric client: %w", err)
	}

	var resp *skinstric.PhaseTwoResponse
	err = withSpinner("Analyzing image", jsonOutput, func() error {
		var err error
		resp, err = client.AnalyzeImage(cmd.Context(), image)
		return err
	})
	if err != nil {
		return err
	}

	review := demographics.NewReview(resp.Data)
	picks := review.Final()

	if visitorID != "" {
		ctx := cmd.Context()
		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Backend().Close()
		visitor := st.Visitor(visitorID)
		if err := visitor.SaveImage(ctx, image); err != nil {
			return fmt.Errorf("storing image: %w", err)
		}
		if err := visitor.SaveDemographics(ctx, picks); err != nil {
			return fmt.Errorf("storing picks: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		result := analysisOutput{
			Message: resp.Message,
			Options: make(map[demographics.Category][]demographics.Option),
			Picks:   picks,
		}
		for _, c := range demographics.Categories {
			result.Options[c] = review.Options(c)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printReview(out, review)
	return nil
}

// withSpinner runs fn while an indeterminate progress bar spins on stderr.
func withSpinner(description string, silent bool, fn func() error) error {
	bar := newSpinner(description, silent)
	done := make(chan struct{})
	ticked := make(chan struct{})
	go func() {
		defer close(ticked)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	err := fn()
	close(done)
	<-ticked
	bar.Finish()
	return err
}

// newSpinner returns an indeterminate progress bar; silent for JSON output.
func newSpinner(description string, silent bool) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWriter(os.Stderr),
	}
	if silent {
		opts = append(opts, progressbar.OptionSetVisibility(false))
	}
	return progressbar.NewOptions(-1, opts...)
}

func printReview(out io.Writer, review *demographics.Review) {
	for _, c := range demographics.Categories {
		pick := review.Selected(c)
		fmt.Fprintf(out, "%s: %s (%g%%)\n", c.Title(), pick.Label, pick.Value)

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, opt := range review.Options(c) {
			fmt.Fprintf(w, "  %s\t%g%%\n", opt.Label, opt.Value)
		}
		w.Flush()
		fmt.Fprintln(out)
	}
}
