package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/finreport-extractor/constants"
	"github.com/joseph-ayodele/finreport-extractor/internal/batch"
	"github.com/joseph-ayodele/finreport-extractor/internal/common"
	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

func TestResolveInputs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		configured string
		want       []string
	}{
		{name: "args win", args: []string{"a.pdf"}, configured: "b.pdf", want: []string{"a.pdf"}},
		{name: "configured list", configured: "a.pdf, reports/ ,", want: []string{"a.pdf", "reports/"}},
		{name: "nothing", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveInputs(tt.args, tt.configured))
		})
	}
}

func TestApplyRunFlags(t *testing.T) {
	cmd := newRunCmd()
	assert.NoError(t, cmd.Flags().Parse([]string{"--workers", "4", "--no-llm", "--out", "x.json"}))

	var f runFlags
	f.workers, _ = cmd.Flags().GetInt("workers")
	f.noLLM, _ = cmd.Flags().GetBool("no-llm")
	f.out, _ = cmd.Flags().GetString("out")

	cfg := &common.Config{}
	cfg.LLM.Provider = common.ProviderOpenAI
	cfg.Batch.Workers = 1
	cfg.Output.JSONPath = common.DefaultJSONOutput
	applyRunFlags(cmd, cfg, f)

	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, common.ProviderNone, cfg.LLM.Provider)
	assert.Equal(t, "x.json", cfg.Output.JSONPath)
}

func TestApplyRunFlagsKeepsConfigWhenUnset(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().Int("workers", 0, "")

	cfg := &common.Config{}
	cfg.Batch.Workers = 3
	cfg.LLM.Provider = common.ProviderOllama
	applyRunFlags(cmd, cfg, runFlags{})

	assert.Equal(t, 3, cfg.Batch.Workers)
	assert.Equal(t, common.ProviderOllama, cfg.LLM.Provider)
}

func TestReportDocument(t *testing.T) {
	t.Run("fallback record", func(t *testing.T) {
		var buf bytes.Buffer
		reportDocument(&buf, batch.DocumentResult{
			Ref:    "reports/acme.pdf",
			Status: constants.DocumentResolved,
			Source: constants.SourceFallback,
			Record: entity.Record{CompanyName: entity.Str("Acme plc"), AdditionalDetails: map[string]any{}},
		})
		out := buf.String()
		assert.Contains(t, out, "Processing file: reports/acme.pdf")
		assert.Contains(t, out, "using fallback extraction")
		assert.Contains(t, out, `"company_name": "Acme plc"`)
	})

	t.Run("semantic record has no fallback notice", func(t *testing.T) {
		var buf bytes.Buffer
		reportDocument(&buf, batch.DocumentResult{
			Ref:    "a.txt",
			Status: constants.DocumentResolved,
			Source: constants.SourceSemantic,
			Record: entity.Record{CompanyName: entity.Str("Acme")},
		})
		assert.NotContains(t, buf.String(), "fallback")
	})

	t.Run("skipped", func(t *testing.T) {
		var buf bytes.Buffer
		reportDocument(&buf, batch.DocumentResult{Ref: "empty.pdf", Status: constants.DocumentSkipped, Reason: "no text found"})
		assert.Contains(t, buf.String(), "No text found in the document (no text found).")
	})
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, batch.Summary{
		Total: 3, Processed: 2, Semantic: 1, Fallback: 1, Skipped: 1,
		SkippedDocs: []batch.SkippedDoc{{Ref: "empty.pdf", Reason: "no text found"}},
		Elapsed:     1500 * time.Millisecond,
	}, "out.json")

	out := buf.String()
	assert.Contains(t, out, "Processed 2 of 3 documents (1 semantic, 1 fallback, 1 skipped) in 1.5s")
	assert.Contains(t, out, "skipped empty.pdf: no text found")
	assert.Contains(t, out, "Results saved to out.json")
}

func TestClosersRunInReverse(t *testing.T) {
	var order []int
	var cl closers
	cl.add(func() error { order = append(order, 1); return nil })
	cl.add(func() error { order = append(order, 2); return nil })
	assert.NoError(t, cl.Close())
	assert.Equal(t, []int{2, 1}, order)
}
