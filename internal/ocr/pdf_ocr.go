package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/finreport-extractor/constants"
	"github.com/joseph-ayodele/finreport-extractor/internal/common"
)

// extractPDF prefers pdftotext and falls back to the pure-Go reader when the binary
// fails or yields nothing.
func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	res := ExtractionResult{SourceType: constants.PDF}

	if !e.cfg.DisableExec {
		pages, warns, err := e.pdfToText(ctx, path)
		res.Warnings = append(res.Warnings, warns...)
		if err == nil {
			if text := joinPages(pages); text != "" {
				res.Text, res.Pages, res.Method = text, len(pages), "pdf-text"
				return res, nil
			}
			res.Warnings = append(res.Warnings, "pdftotext produced no text")
		} else {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			e.logger.Warn("ocr.pdftotext.failed", "path", path, "error", err)
		}
	}

	pages, err := e.readPages(path)
	if err != nil {
		return res, fmt.Errorf("read pdf: %w", err)
	}
	res.Text, res.Pages, res.Method = joinPages(pages), len(pages), "pdf-go"
	return res, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) ([]string, []string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, []string{string(errb)}, err
	}
	// form feed separates pages; the last page is usually followed by one too
	pages := strings.Split(string(out), "\f")
	if n := len(pages); n > 1 && pages[n-1] == "" {
		pages = pages[:n-1]
	}
	return pages, nil, nil
}

// joinPages appends a newline after each page that yielded text, then trims and normalizes.
func joinPages(pages []string) string {
	var b strings.Builder
	for _, p := range pages {
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteString("\n")
	}
	return Normalize(strings.TrimSpace(b.String()))
}

func readPDFPages(path string) (pages []string, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("%w: pdf reader panic: %v", common.ErrInternal, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	pages = make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
