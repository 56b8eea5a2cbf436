package cmd

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zballl/vibecheck-app/internal/ailink"
	"github.com/zballl/vibecheck-app/internal/core"
	"github.com/zballl/vibecheck-app/internal/observability"
	"github.com/zballl/vibecheck-app/internal/output"
	"github.com/zballl/vibecheck-app/internal/server/handlers"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [mood...]",
	Short: "Recommend a playlist for a mood",
	Long: `Recommend five tracks for a free-text mood.

The mood can be given as arguments, read from stdin with "-", picked at
random with --surprise, or derived from a three-answer quiz:

  vibecheck recommend "rainy sunday, a bit nostalgic"
  echo "wired but tired" | vibecheck recommend -
  vibecheck recommend --surprise
  vibecheck recommend --quiz "physical=Tired,emotional=Sad,mental=Calm"

Exit codes: 0 on success, config-invalid when the API key is missing or
rejected, external-service-unavailable when every endpoint failed.`,
	Aliases: []string{"rec"},
	RunE:    runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().Bool("surprise", false, "pick a random mood")
	recommendCmd.Flags().String("quiz", "", "quiz answers as physical=..,emotional=..,mental=..")
	recommendCmd.Flags().String("format", "table", "output format: table, json, markdown, yaml")
	recommendCmd.Flags().String("model", "", "use only this model (skips discovery and fallbacks)")
	recommendCmd.Flags().Duration("timeout", 0, "per-endpoint request timeout (e.g. 20s)")
	recommendCmd.Flags().String("strategy", "", "endpoint resolution strategy: static or discovery")
	recommendCmd.Flags().String("out", "", "write output to file (default stdout)")
	recommendCmd.Flags().String("out-dir", "", "write output to <dir>/<mood>.<ext>")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	surprise, _ := cmd.Flags().GetBool("surprise")
	quiz, _ := cmd.Flags().GetString("quiz")
	moodText, err := resolveMood(moodSources{
		Positional: args,
		Surprise:   surprise,
		Quiz:       quiz,
		Stdin:      cmd.InOrStdin(),
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		return err
	}

	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	path, err := resolveOutputPath(cmd, moodText, format)
	if err != nil {
		return err
	}
	sink, err := openSink(path, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := ailink.NewService(cfg.AILink, nil, observability.CLILogger)
	formatter := output.NewFormatter(format, output.Options{Verbose: verbose})
	return recommend(ctx, svc, moodText, formatter, sink.writer)
}

// recommend runs one pipeline call and renders the outcome to w.
// Failures are rendered before they are returned, so the returned error is quiet.
func recommend(ctx context.Context, svc handlers.Recommender, moodText string, formatter output.Formatter, w io.Writer) error {
	observability.CLILogger.Debug("Requesting recommendations", zap.String("mood", moodText))

	out := svc.GetRecommendations(ctx, moodText, "")
	rendered, err := formatter.FormatOutcome(out)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, rendered); err != nil {
		return err
	}

	switch out.Status {
	case core.StatusSuccess:
		return nil
	case core.StatusInvalidMood:
		return &exitError{code: exitInvalidMood, err: ailink.ErrInvalidMood, quiet: true}
	default:
		return &exitError{code: ExitCodeFor(out.Err), err: out.Err, quiet: true}
	}
}
