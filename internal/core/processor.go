package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/finreport-extractor/constants"
	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
	"github.com/joseph-ayodele/finreport-extractor/internal/llm"
)

// PatternExtractor is the deterministic stage; it never fails.
type PatternExtractor interface {
	Extract(text string) entity.Record
}

// Processor resolves one document's text into a record: semantic extraction first,
// the pattern extractor when the semantic result is missing or fails the acceptance gate.
type Processor struct {
	logger   *slog.Logger
	semantic llm.RecordExtractor
	pattern  PatternExtractor
}

// NewProcessor builds the orchestrator. semantic may be nil, which routes every
// document to the pattern extractor.
func NewProcessor(logger *slog.Logger, semantic llm.RecordExtractor, pattern PatternExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, semantic: semantic, pattern: pattern}
}

// Resolve never fails. Channel errors count as a rejection of the semantic result.
// Fields are never merged across the two stages.
func (p *Processor) Resolve(ctx context.Context, text string) (entity.Record, constants.RecordSource) {
	start := time.Now()

	if p.semantic != nil {
		rec, err := p.semantic.Extract(ctx, text)
		switch {
		case err != nil:
			p.logger.Warn("processor.semantic.transport_failed", "error", err)
		case rec == nil:
			p.logger.Info("processor.semantic.no_result")
		case rec.Accepted():
			p.logger.Debug("processor.semantic.accepted",
				"company", *rec.CompanyName,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return *rec, constants.SourceSemantic
		default:
			p.logger.Info("processor.semantic.rejected", "reason", "company_name missing or empty")
		}
	}

	out := p.pattern.Extract(text)
	p.logger.Info("processor.fallback.used",
		"company", entity.ValueOr(out.CompanyName),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, constants.SourceFallback
}
