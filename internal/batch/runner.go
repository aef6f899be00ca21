package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/finreport-extractor/constants"
	"github.com/joseph-ayodele/finreport-extractor/internal/common"
	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

// TextAcquirer turns a document reference into text. "" means no text was found.
type TextAcquirer interface {
	Acquire(ctx context.Context, ref string) (string, error)
}

// Resolver produces the record for one document's text. It never fails.
type Resolver interface {
	Resolve(ctx context.Context, text string) (entity.Record, constants.RecordSource)
}

// Sink persists a finished result set.
type Sink interface {
	Write(ctx context.Context, rs *entity.ResultSet) error
}

// DocumentResult is reported to the observer once per document.
type DocumentResult struct {
	Index      int
	Ref        string
	DocumentID string
	Status     constants.DocumentStatus
	Source     constants.RecordSource
	Record     entity.Record
	Reason     string // why the document was skipped
	Elapsed    time.Duration
}

type SkippedDoc struct {
	Ref    string
	Reason string
}

// Summary describes a finished run.
type Summary struct {
	RunID       string
	Total       int
	Processed   int
	Skipped     int
	Semantic    int
	Fallback    int
	SkippedDocs []SkippedDoc
	Elapsed     time.Duration
}

// Runner processes a batch of documents into an ordered ResultSet and hands it to a Sink.
type Runner struct {
	acquirer TextAcquirer
	resolver Resolver
	sink     Sink
	logger   *slog.Logger

	workers    int
	docTimeout time.Duration
	observer   func(DocumentResult)
	obsMu      sync.Mutex
}

type Option func(*Runner)

// WithWorkers bounds how many documents are processed at once.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithDocumentTimeout bounds acquisition plus resolution of a single document.
func WithDocumentTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.docTimeout = d
		}
	}
}

// WithObserver registers a per-document callback. Calls are serialized.
func WithObserver(fn func(DocumentResult)) Option {
	return func(r *Runner) { r.observer = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner builds a runner. sink may be nil, in which case nothing is persisted.
func NewRunner(acquirer TextAcquirer, resolver Resolver, sink Sink, opts ...Option) *Runner {
	r := &Runner{
		acquirer: acquirer,
		resolver: resolver,
		sink:     sink,
		logger:   slog.Default(),
		workers:  1,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run processes refs in order. Documents that yield no text are skipped, not failed.
// A cancelled context stops the run before the sink is called and its error is returned.
// A sink failure is returned wrapped in common.ErrPersistence.
func (r *Runner) Run(ctx context.Context, refs []string) (*entity.ResultSet, Summary, error) {
	start := time.Now()
	sum := Summary{RunID: uuid.New().String(), Total: len(refs)}
	ctx = common.WithRunID(ctx, sum.RunID)

	r.logger.Info("batch.run.start", "run_id", sum.RunID, "documents", len(refs), "workers", r.workers)

	slots := make([]DocumentResult, len(refs))
	done := make([]bool, len(refs))

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := r.processOne(ctx, i, ref)
			slots[i], done[i] = res, true
			r.notify(res)
			return nil
		})
	}
	_ = g.Wait()

	rs := entity.NewResultSet()
	for i, res := range slots {
		if !done[i] || res.Status == constants.DocumentCancelled {
			continue
		}
		switch res.Status {
		case constants.DocumentSkipped:
			sum.Skipped++
			sum.SkippedDocs = append(sum.SkippedDocs, SkippedDoc{Ref: res.Ref, Reason: res.Reason})
		case constants.DocumentResolved:
			sum.Processed++
			if res.Source == constants.SourceSemantic {
				sum.Semantic++
			} else {
				sum.Fallback++
			}
			rs.Set(res.DocumentID, res.Record, res.Source)
		}
	}
	sum.Elapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		r.logger.Warn("batch.run.cancelled", "run_id", sum.RunID, "processed", sum.Processed, "error", err)
		return rs, sum, err
	}

	if r.sink != nil {
		if err := r.sink.Write(ctx, rs); err != nil {
			r.logger.Error("batch.sink.failed", "run_id", sum.RunID, "error", err)
			return rs, sum, fmt.Errorf("%w: %w", common.ErrPersistence, err)
		}
	}

	r.logger.Info("batch.run.done",
		"run_id", sum.RunID,
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"semantic", sum.Semantic,
		"fallback", sum.Fallback,
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return rs, sum, nil
}

func (r *Runner) processOne(ctx context.Context, i int, ref string) DocumentResult {
	start := time.Now()
	res := DocumentResult{Index: i, Ref: ref, DocumentID: filepath.Base(ref)}
	ctx = common.WithDocumentID(ctx, res.DocumentID)

	if r.docTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.docTimeout)
		defer cancel()
	}

	text, err := r.acquirer.Acquire(ctx, ref)
	switch {
	case err != nil && errors.Is(ctx.Err(), context.Canceled):
		res.Status = constants.DocumentCancelled
		return res
	case err != nil:
		res.Status, res.Reason = constants.DocumentSkipped, fmt.Errorf("%w: %w", common.ErrAcquisition, err).Error()
		r.logger.Warn("batch.document.skipped", "doc", res.DocumentID, "path", ref, "error", err)
	case strings.TrimSpace(text) == "":
		res.Status, res.Reason = constants.DocumentSkipped, "no text found"
		r.logger.Warn("batch.document.skipped", "doc", res.DocumentID, "path", ref, "reason", res.Reason)
	default:
		res.Record, res.Source = r.resolver.Resolve(ctx, text)
		res.Status = constants.DocumentResolved
		r.logger.Info("batch.document.resolved", "doc", res.DocumentID, "source", res.Source)
	}
	res.Elapsed = time.Since(start)
	return res
}

func (r *Runner) notify(res DocumentResult) {
	if r.observer == nil {
		return
	}
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observer(res)
}
