package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/finreport-extractor/constants"
	"github.com/joseph-ayodele/finreport-extractor/internal/batch"
	"github.com/joseph-ayodele/finreport-extractor/internal/common"
	"github.com/joseph-ayodele/finreport-extractor/internal/export"
	"github.com/joseph-ayodele/finreport-extractor/internal/ingest"
)

type runFlags struct {
	out      string
	xlsx     string
	db       string
	provider string
	workers  int
	noLLM    bool
	quiet    bool
}

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Extract financial entities from documents and write the results",
		Long: `Processes every document named on the command line (files, or directories walked
for pdf, txt and md files). With no arguments the comma-separated FINREPORT_INPUTS list is used.
Results are written as one JSON object keyed by document file name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			applyRunFlags(cmd, a.cfg, f)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return runBatch(cmd.Context(), a, args, f.quiet, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&f.out, "out", "o", "", "JSON output path (default FINREPORT_OUT or "+common.DefaultJSONOutput+")")
	cmd.Flags().StringVar(&f.xlsx, "xlsx", "", "also write an XLSX workbook to this path")
	cmd.Flags().StringVar(&f.db, "db", "", "also store results in this database (postgres:// URL or sqlite path)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "ollama|openai|vertex|none (default LLM_PROVIDER)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "documents processed concurrently (default FINREPORT_WORKERS)")
	cmd.Flags().BoolVar(&f.noLLM, "no-llm", false, "skip the language model and use pattern extraction only")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "print only the final summary")
	return cmd
}

func applyRunFlags(cmd *cobra.Command, cfg *common.Config, f runFlags) {
	if f.out != "" {
		cfg.Output.JSONPath = f.out
	}
	if f.xlsx != "" {
		cfg.Output.XLSXPath = f.xlsx
	}
	if f.db != "" {
		cfg.Output.DBURL = f.db
	}
	if f.provider != "" {
		cfg.LLM.Provider = f.provider
	}
	if cmd.Flags().Changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if f.noLLM {
		cfg.LLM.Provider = common.ProviderNone
	}
}

// resolveInputs prefers explicit arguments over the configured input list.
func resolveInputs(args []string, configured string) []string {
	if len(args) > 0 {
		return args
	}
	return ingest.SplitList(configured)
}

func runBatch(parent context.Context, a *app, args []string, quiet bool, stdout io.Writer) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger := a.cfg, a.logger

	inputs := resolveInputs(args, cfg.Batch.Inputs)
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no input documents given", common.ErrInvalidInput)
	}
	paths, stats, err := ingest.Discover(ctx, inputs, ingest.Options{SkipHidden: true, Logger: logger})
	if err != nil {
		return err
	}
	logger.Info("ingest.discovered", "documents", len(paths), "scanned", stats.Scanned, "failed", stats.Failed)

	var cl closers
	defer func() {
		if cerr := cl.Close(); cerr != nil {
			logger.Warn("shutdown.close_failed", "error", cerr)
		}
	}()

	processor, err := buildProcessor(ctx, cfg, logger, &cl)
	if err != nil {
		return err
	}
	sink, err := buildSink(ctx, cfg, logger, &cl)
	if err != nil {
		return err
	}

	opts := []batch.Option{
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithDocumentTimeout(cfg.Batch.DocumentTimeout),
		batch.WithLogger(logger),
	}
	var bar *progress
	switch {
	case quiet:
	case cfg.Batch.Workers > 1:
		bar = newProgress(int64(len(paths)), "Extracting")
		opts = append(opts, batch.WithObserver(func(batch.DocumentResult) { bar.Increment() }))
	default:
		opts = append(opts, batch.WithObserver(func(res batch.DocumentResult) { reportDocument(stdout, res) }))
	}

	runner := batch.NewRunner(buildAcquirer(cfg, logger), processor, sink, opts...)
	_, sum, err := runner.Run(ctx, paths)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("run %s cancelled after %d documents, nothing saved: %w", sum.RunID, sum.Processed, err)
		}
		return err
	}

	printSummary(stdout, sum, cfg.Output.JSONPath)
	return nil
}

// reportDocument prints the per-document progress lines of a sequential run.
func reportDocument(w io.Writer, res batch.DocumentResult) {
	fmt.Fprintf(w, "\nProcessing file: %s\n", res.Ref)
	switch res.Status {
	case constants.DocumentSkipped:
		fmt.Fprintf(w, "No text found in the document (%s).\n", res.Reason)
	case constants.DocumentResolved:
		if res.Source == constants.SourceFallback {
			fmt.Fprintln(w, "Language model extraction failed or returned empty values, using fallback extraction.")
		}
		out, err := export.EncodeRecordJSON(res.Record)
		if err != nil {
			fmt.Fprintf(w, "cannot encode record: %v\n", err)
			return
		}
		fmt.Fprintf(w, "Extracted Financial Entities:\n%s\n", out)
	}
}

func printSummary(w io.Writer, sum batch.Summary, jsonPath string) {
	fmt.Fprintf(w, "\nProcessed %d of %d documents (%d semantic, %d fallback, %d skipped) in %s\n",
		sum.Processed, sum.Total, sum.Semantic, sum.Fallback, sum.Skipped, sum.Elapsed.Round(time.Millisecond))
	for _, s := range sum.SkippedDocs {
		fmt.Fprintf(w, "  skipped %s: %s\n", s.Ref, s.Reason)
	}
	fmt.Fprintf(w, "\nResults saved to %s\n", jsonPath)
}
