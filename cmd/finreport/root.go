package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/finreport-extractor/internal/common"
)

type appKey struct{}

// app carries the loaded configuration and logger to subcommands.
type app struct {
	cfg    *common.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	var (
		envFile  string
		logJSON  bool
		logLevel string
	)

	root := &cobra.Command{
		Use:   "finreport",
		Short: "Extract company, report date and profit before tax from financial reports",
		Long: `finreport reads financial-report documents (PDF or text), asks a language model for
company_name, report_date, profit_before_tax and additional_details, falls back to
deterministic patterns when the model output is unusable, and writes one JSON object
keyed by document file name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			cfg := common.LoadConfig(files...)
			if cmd.Flags().Changed("log-json") {
				cfg.Log.JSON = logJSON
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			logger := newLogger(cfg)
			slog.SetDefault(logger)

			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{cfg: cfg, logger: logger}))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")
	root.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (default from LOG_LEVEL)")

	root.AddCommand(newRunCmd(), newTextCmd(), newFallbackCmd(), newSemanticCmd(), newDBCheckCmd())
	return root
}

func appFrom(cmd *cobra.Command) *app {
	if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
		return a
	}
	cfg := common.LoadConfig()
	return &app{cfg: cfg, logger: newLogger(cfg)}
}

// newLogger writes logs to stderr so stdout stays clean for results.
func newLogger(cfg *common.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.JSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
