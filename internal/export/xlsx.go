package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

const xlsxSheet = "Results"

var xlsxHeaders = []string{
	"Document",
	"Company Name",
	"Report Date",
	"Profit Before Tax",
	"Additional Details",
	"Source",
}

// XLSXSink writes one row per document to a workbook. Absent fields show as "N/A".
type XLSXSink struct {
	Path   string
	Logger *slog.Logger
}

func NewXLSXSink(path string, logger *slog.Logger) *XLSXSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXSink{Path: path, Logger: logger}
}

func (s *XLSXSink) Write(ctx context.Context, rs *entity.ResultSet) error {
	start := time.Now()
	buf, err := BuildWorkbook(rs)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := writeFileAtomic(s.Path, buf); err != nil {
		return fmt.Errorf("write %s: %w", s.Path, err)
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("export.xlsx.ok",
		"path", s.Path,
		"rows", rs.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// BuildWorkbook returns the XLSX bytes for rs.
func BuildWorkbook(rs *entity.ResultSet) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(xlsxSheet, cell, h)
	}

	row := 2
	for _, e := range rs.Entries() {
		details, err := encodeDetails(e.Record)
		if err != nil {
			return nil, fmt.Errorf("xlsx details for %s: %w", e.DocumentID, err)
		}
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(xlsxSheet, cell, v)
		}
		write(1, e.DocumentID)
		write(2, entity.ValueOr(e.Record.CompanyName))
		write(3, entity.ValueOr(e.Record.ReportDate))
		write(4, entity.ValueOr(e.Record.ProfitBeforeTax))
		write(5, details)
		write(6, string(e.Source))
		row++
	}

	_ = f.SetColWidth(xlsxSheet, "A", "A", 32) // document
	_ = f.SetColWidth(xlsxSheet, "B", "B", 40) // company
	_ = f.SetColWidth(xlsxSheet, "C", "D", 20)
	_ = f.SetColWidth(xlsxSheet, "E", "E", 60) // details
	_ = f.SetColWidth(xlsxSheet, "F", "F", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeDetails(rec entity.Record) (string, error) {
	if len(rec.Details()) == 0 {
		return "{}", nil
	}
	b, err := entity.EncodeNoEscape(rec.Details())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
