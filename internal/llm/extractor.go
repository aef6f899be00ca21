package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// SemanticExtractor asks a language model for the record and turns its reply into an entity.Record.
type SemanticExtractor struct {
	completer TextCompleter
	timeout   time.Duration
	logger    *slog.Logger
}

func NewSemanticExtractor(completer TextCompleter, timeout time.Duration, logger *slog.Logger) *SemanticExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SemanticExtractor{completer: completer, timeout: timeout, logger: logger}
}

// Extract returns (nil, err) only for channel failures, wrapping ErrTransport.
// A reply with no JSON object, invalid JSON or a non-object value yields (nil, nil).
func (e *SemanticExtractor) Extract(ctx context.Context, text string) (*entity.Record, error) {
	rid := uuid.New().String()
	start := time.Now()

	e.logger.Info("llm.extract.start", "req_id", rid, "text_len", len(text), "timeout", e.timeout)

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	reply, err := e.completer.Complete(cctx, BuildPrompt(text))
	if err != nil {
		e.logger.Error("llm.extract.transport_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if errors.Is(err, ErrTransport) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	span, ok := FirstJSONObject(reply)
	if !ok {
		e.logger.Warn("llm.extract.no_json", "req_id", rid, "reply_len", len(reply))
		return nil, nil
	}

	normalized, _, err := NormalizeRecordJSON([]byte(span), e.logger)
	if err != nil {
		e.logger.Warn("llm.extract.invalid_json", "req_id", rid, "error", err)
		return nil, nil
	}

	if err := ValidateRecordJSON(normalized); err != nil {
		e.logger.Warn("llm.extract.schema_mismatch", "req_id", rid, "error", err)
	}

	var rec entity.Record
	if err := json.Unmarshal(normalized, &rec); err != nil {
		e.logger.Warn("llm.extract.unmarshal_failed", "req_id", rid, "error", err)
		return nil, nil
	}

	e.logger.Info("llm.extract.ok",
		"req_id", rid,
		"company", entity.ValueOr(rec.CompanyName),
		"date", entity.ValueOr(rec.ReportDate),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &rec, nil
}
