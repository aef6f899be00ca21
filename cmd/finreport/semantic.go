package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/finreport-extractor/internal/common"
	"github.com/joseph-ayodele/finreport-extractor/internal/export"
	"github.com/joseph-ayodele/finreport-extractor/internal/llm"
)

// newSemanticCmd runs only the language-model stage, optionally several times on the
// same document to check how stable the model output is.
func newSemanticCmd() *cobra.Command {
	var (
		times    int
		provider string
	)
	cmd := &cobra.Command{
		Use:   "semantic <file>",
		Short: "Run only the language-model extractor on one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			if provider != "" {
				a.cfg.LLM.Provider = provider
			}
			if a.cfg.LLM.Provider == common.ProviderNone {
				return fmt.Errorf("%w: semantic needs a language model provider", common.ErrInvalidInput)
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()

			text, err := buildAcquirer(a.cfg, a.logger).Acquire(ctx, args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No text found in the document.")
				return nil
			}

			var cl closers
			defer func() { _ = cl.Close() }()
			completer, err := buildCompleter(ctx, a.cfg, a.logger, &cl)
			if err != nil {
				return err
			}
			ext := llm.NewSemanticExtractor(completer, a.cfg.LLM.Timeout, a.logger)

			for i := 1; i <= times; i++ {
				start := time.Now()
				rec, err := ext.Extract(ctx, text)
				a.logger.Info("semantic.run.done", "iter", i, "elapsed_ms", time.Since(start).Milliseconds(), "ok", rec != nil)
				switch {
				case errors.Is(err, llm.ErrTransport):
					fmt.Fprintf(cmd.OutOrStdout(), "#%d transport error: %v\n", i, err)
				case err != nil:
					return err
				case rec == nil:
					fmt.Fprintf(cmd.OutOrStdout(), "#%d no usable record\n", i)
				default:
					out, err := export.EncodeRecordJSON(*rec)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "#%d accepted=%t\n%s\n", i, rec.Accepted(), out)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&times, "times", "n", 1, "number of extraction attempts")
	cmd.Flags().StringVar(&provider, "provider", "", "ollama|openai|vertex (default LLM_PROVIDER)")
	return cmd
}
