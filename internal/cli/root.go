package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apresai/dialogcast/internal/completion"
	"github.com/apresai/dialogcast/internal/config"
	"github.com/apresai/dialogcast/internal/observability"
	"github.com/apresai/dialogcast/internal/script"
	"github.com/apresai/dialogcast/internal/server"
	"github.com/apresai/dialogcast/internal/speech"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "dialogcast",
	Short: "Turn news articles into multi-speaker podcast dialogue scripts",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dialogcast %s\n", Version)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server in the foreground",
	RunE:  runServe,
}

var flagVerbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(setupCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	log := observability.InitLogger(flagVerbose)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := observability.InitTracer(ctx, "dialogcast", Version)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
	} else if tp != nil {
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}

	if cfg.APIKey == "" {
		log.Warn("no API key configured, generation will return diagnostic scripts (run 'dialogcast setup')")
	}

	client := completion.NewClient(completion.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL})
	svc := script.NewService(client, cfg.Model, cfg.MaxTokens, log)

	speechMgr, err := speech.NewManager(cfg.AudioDir(), log)
	if err != nil {
		return err
	}

	return server.New(cfg, svc, speechMgr, log).Run(ctx)
}
