package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/finreport-extractor/internal/export"
)

func newFallbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fallback <file>",
		Short: "Run only the pattern extractor on one document and print the record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			text, err := buildAcquirer(a.cfg, a.logger).Acquire(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No text found in the document.")
				return nil
			}
			pattern, err := buildFallback(a.cfg, a.logger)
			if err != nil {
				return err
			}
			out, err := export.EncodeRecordJSON(pattern.Extract(text))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
