package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/finreport-extractor/internal/common"
)

func newTextCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "text <file>",
		Short: "Print the text acquired from one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ext := buildAcquirer(a.cfg, a.logger)

			start := time.Now()
			res, err := ext.Extract(cmd.Context(), args[0])
			if err != nil {
				return common.WrapError(err, "text extraction failed")
			}
			a.logger.Info("text.extract.ok",
				"method", res.Method,
				"pages", res.Pages,
				"bytes", len(res.Text),
				"warnings", len(res.Warnings),
				"duration_ms", time.Since(start).Milliseconds(),
			)
			if !raw && res.Text == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No text found in the document.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the text only, even when empty")
	return cmd
}
