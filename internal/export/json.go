package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/finreport-extractor/internal/common"
	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

// JSONSink writes the result set as one UTF-8 JSON object with 4-space indentation.
// Non-ASCII text is written as-is.
type JSONSink struct {
	Path   string
	Logger *slog.Logger
}

func NewJSONSink(path string, logger *slog.Logger) *JSONSink {
	if path == "" {
		path = common.DefaultJSONOutput
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONSink{Path: path, Logger: logger}
}

func (s *JSONSink) Write(ctx context.Context, rs *entity.ResultSet) error {
	start := time.Now()
	data, err := EncodeJSON(rs)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFileAtomic(s.Path, data); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	s.logger().Info("export.json.ok",
		"path", s.Path,
		"documents", rs.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *JSONSink) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// EncodeJSON renders rs the way JSONSink writes it.
func EncodeJSON(rs *entity.ResultSet) ([]byte, error) {
	raw, err := rs.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode results: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return nil, fmt.Errorf("indent results: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeRecordJSON renders a single record with the same formatting.
func EncodeRecordJSON(rec entity.Record) ([]byte, error) {
	raw, err := rec.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
