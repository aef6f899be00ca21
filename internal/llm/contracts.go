package llm

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

// ErrTransport marks failures talking to the language-model channel (network,
// non-2xx status, timeout). Parse problems in the model reply are never errors.
var ErrTransport = errors.New("llm transport failure")

// TextCompleter sends a single user prompt to a model and returns the raw reply.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RecordExtractor is the interface the orchestrator depends on.
// A nil record with a nil error means the model produced nothing usable.
type RecordExtractor interface {
	Extract(ctx context.Context, text string) (*entity.Record, error)
}
