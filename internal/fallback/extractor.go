// Package fallback implements the deterministic, rule-based record extractor used when
// semantic extraction is unavailable or rejected.
package fallback

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/finreport-extractor/constants"
	"github.com/joseph-ayodele/finreport-extractor/internal/entity"
)

var (
	reLabeledDate = regexp.MustCompile(`Date:\s*(\d{1,2}(?:st|nd|rd|th)?\s+[A-Za-z]+\s+\d{4})`)
	reMonthDate   = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`)
	reProfit      = regexp.MustCompile(`(?i)Profit\s+before\s+tax.*?([\d,]+\.\d+)`)
)

// Extractor is safe for concurrent use; it holds no mutable state after construction.
type Extractor struct {
	issuers []constants.Issuer
	logger  *slog.Logger
}

type Option func(*Extractor)

// WithIssuers replaces the company lookup table. An empty table disables company matching.
func WithIssuers(issuers []constants.Issuer) Option {
	return func(e *Extractor) {
		e.issuers = append([]constants.Issuer(nil), issuers...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		issuers: append([]constants.Issuer(nil), constants.DefaultIssuers...),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract never fails: unmatched fields are left absent and additional_details is empty.
func (e *Extractor) Extract(text string) entity.Record {
	rec := entity.Record{
		CompanyName:       e.companyName(text),
		ReportDate:        reportDate(text),
		ProfitBeforeTax:   profitBeforeTax(text),
		AdditionalDetails: map[string]any{},
	}
	e.logger.Debug("fallback.extract.done",
		"text_len", len(text),
		"company", entity.ValueOr(rec.CompanyName),
		"date", entity.ValueOr(rec.ReportDate),
		"pbt", entity.ValueOr(rec.ProfitBeforeTax),
	)
	return rec
}

func (e *Extractor) companyName(text string) *string {
	var lower string
	for _, is := range e.issuers {
		if is.Fragment == "" {
			continue
		}
		if is.FoldCase {
			if lower == "" {
				lower = strings.ToLower(text)
			}
			if strings.Contains(lower, strings.ToLower(is.Fragment)) {
				return entity.Str(is.Canonical)
			}
			continue
		}
		if strings.Contains(text, is.Fragment) {
			return entity.Str(is.Canonical)
		}
	}
	return nil
}

func reportDate(text string) *string {
	if m := reLabeledDate.FindStringSubmatch(text); m != nil {
		return entity.Str(strings.TrimSpace(m[1]))
	}
	if m := reMonthDate.FindString(text); m != "" {
		return entity.Str(strings.TrimSpace(m))
	}
	return nil
}

func profitBeforeTax(text string) *string {
	m := reProfit.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n := strings.ReplaceAll(m[1], ",", "")
	return entity.Str("₹" + n + " Crores")
}
