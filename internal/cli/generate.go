package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/apresai/dialogcast/internal/completion"
	"github.com/apresai/dialogcast/internal/config"
	"github.com/apresai/dialogcast/internal/ingest"
	"github.com/apresai/dialogcast/internal/observability"
	"github.com/apresai/dialogcast/internal/progress"
	"github.com/apresai/dialogcast/internal/script"
	"github.com/apresai/dialogcast/internal/speech"
)

var (
	flagInput        string
	flagOutput       string
	flagStyle        string
	flagParticipants int
	flagModel        string
	flagMaxTokens    int64
	flagSpeech       bool
	flagTitle        string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dialogue script from an article (URL, PDF, text file, or - for stdin)",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&flagInput, "input", "i", "", "Source article (URL, PDF path, text file path, or -)")
	generateCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output script path (default: results dir, auto-named)")
	generateCmd.Flags().StringVarP(&flagStyle, "style", "s", "casual", "Dialogue style: casual, entertainment, professional (unknown values fall back to casual)")
	generateCmd.Flags().IntVarP(&flagParticipants, "participants", "p", 2, "Number of speakers (minimum 2)")
	generateCmd.Flags().StringVarP(&flagModel, "model", "m", "", "Model alias or id (default from DIALOGCAST_MODEL)")
	generateCmd.Flags().Int64Var(&flagMaxTokens, "max-tokens", 0, "Completion token budget (default from DIALOGCAST_MAX_TOKENS)")
	generateCmd.Flags().BoolVar(&flagSpeech, "speech", false, "Also render placeholder audio and package a podcast manifest")
	generateCmd.Flags().StringVar(&flagTitle, "title", "", "Podcast title for the manifest (default: article title)")
	_ = generateCmd.MarkFlagRequired("input")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if flagParticipants < 2 {
		return fmt.Errorf("invalid participants count %d: need at least 2", flagParticipants)
	}

	cfg := config.FromEnv()
	log := observability.InitLogger(flagVerbose)

	renderer := progress.NewBarRenderer(os.Stdout)
	defer renderer.Finish()
	report := renderer.Handle
	start := time.Now()

	report(progress.NewEvent(progress.StageIngest, fmt.Sprintf("reading %s", flagInput), 0.05, start))
	article, err := ingest.NewIngester(flagInput).Ingest(cmd.Context(), flagInput)
	if err != nil {
		report(progress.Event{Stage: progress.StageIngest, Error: err})
		return err
	}
	report(progress.NewEvent(progress.StageIngest,
		fmt.Sprintf("%d chars from %s", article.CharCount, article.Source), 0.2, start))

	client := completion.NewClient(completion.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
	svc := script.NewService(client, cfg.Model, cfg.MaxTokens, log)

	report(progress.NewEvent(progress.StageScript, "generating dialogue", 0.3, start))
	result, err := svc.Generate(cmd.Context(), article.Text, script.GenerateOptions{
		Style:        script.ParseStyle(flagStyle),
		Participants: flagParticipants,
		Model:        flagModel,
		MaxTokens:    flagMaxTokens,
	})
	if err != nil {
		report(progress.Event{Stage: progress.StageScript, Error: err})
		return err
	}
	if result.Error != "" {
		// Degraded script: still saved, but the failure must be visible.
		fmt.Fprintf(os.Stderr, "\n  warning: generation degraded (%s): %s\n", result.FailureKind, result.Error)
	}
	report(progress.NewEvent(progress.StageScript,
		fmt.Sprintf("%d segments", len(result.Segments)), 0.6, start))

	outPath := flagOutput
	if outPath == "" {
		if err := os.MkdirAll(cfg.ResultsDir(), 0o755); err != nil {
			return err
		}
		outPath = filepath.Join(cfg.ResultsDir(), fmt.Sprintf("script_%d.json", time.Now().Unix()))
	}
	if err := script.SaveScript(result, outPath); err != nil {
		return err
	}

	if !flagSpeech {
		report(progress.Event{Stage: progress.StageComplete, Message: "script saved", OutputFile: outPath})
		return nil
	}

	speechMgr, err := speech.NewManager(cfg.AudioDir(), log)
	if err != nil {
		return err
	}

	report(progress.NewEvent(progress.StageSpeech, "rendering placeholder audio", 0.7, start))
	dialog := dialogFromScript(result)
	dialog = speechMgr.ProcessDialog(dialog)

	title := flagTitle
	if title == "" {
		title = article.Title
	}
	manifest := speechMgr.PackagePodcast(dialog, title)
	if manifest == "" {
		return fmt.Errorf("podcast packaging failed")
	}
	report(progress.Event{Stage: progress.StageComplete, Message: "podcast packaged", OutputFile: manifest})
	return nil
}

// dialogFromScript flattens a script into speech dialog lines, resolving
// role ids to display names for the speaker column.
func dialogFromScript(s *script.DialogueScript) []speech.DialogLine {
	names := make(map[string]string, len(s.Roles))
	for _, r := range s.Roles {
		names[r.ID] = r.Name
	}
	lines := make([]speech.DialogLine, 0, len(s.Segments))
	for _, seg := range s.Segments {
		speaker := names[seg.Role]
		if speaker == "" {
			speaker = strings.TrimSpace(seg.Role)
		}
		lines = append(lines, speech.DialogLine{
			Role:    seg.Role,
			Speaker: speaker,
			Text:    seg.Text,
		})
	}
	return lines
}
