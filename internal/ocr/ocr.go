package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/finreport-extractor/constants"
)

// ErrUnsupported is returned for file extensions with no text strategy.
var ErrUnsupported = errors.New("unsupported document type")

type Config struct {
	Pdftotext    string // binary name or absolute path; if empty -> "pdftotext"
	DisableExec  bool   // skip pdftotext and use the pure-Go reader only
	MaxTextBytes int64  // 0 = no limit for plain-text files
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.TEXT
	Method     string // "pdf-text" | "pdf-go" | "plain"
	Duration   time.Duration
	Warnings   []string
}

// Extractor turns a document path into plain text.
type Extractor struct {
	cfg       Config
	runner    Runner
	readPages func(path string) ([]string, error)
	logger    *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, readPages: readPDFPages, logger: logger}
}

// Acquire returns the document text; "" means no text was found.
func (e *Extractor) Acquire(ctx context.Context, path string) (string, error) {
	res, err := e.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return ExtractionResult{}, err
	}
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	var (
		res ExtractionResult
		err error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = e.extractPDF(ctx, path)
	case constants.TEXT:
		res, err = e.extractPlain(path)
	default:
		e.logger.Error("ocr.extract.unsupported", "path", path, "ext", ext)
		return ExtractionResult{}, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	e.logger.Info("ocr.extract.done",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) extractPlain(path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.TEXT, Method: "plain", Pages: 1}
	if e.cfg.MaxTextBytes > 0 {
		if st, err := os.Stat(path); err == nil && st.Size() > e.cfg.MaxTextBytes {
			return res, fmt.Errorf("text file too large: %d bytes", st.Size())
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read text file: %w", err)
	}
	res.Text = Normalize(string(b))
	return res, nil
}
