package entity

import (
	"bytes"
	"encoding/json"
	"maps"
)

// NotAvailable is written in place of an absent field at the serialization boundary.
const NotAvailable = "N/A"

// Record is the fixed-schema extraction output for one document.
// A nil string field means the value was not found.
type Record struct {
	CompanyName       *string
	ReportDate        *string
	ProfitBeforeTax   *string
	AdditionalDetails map[string]any
}

// wire shape; field order is the canonical key order.
type recordJSON struct {
	CompanyName       string         `json:"company_name"`
	ReportDate        string         `json:"report_date"`
	ProfitBeforeTax   string         `json:"profit_before_tax"`
	AdditionalDetails map[string]any `json:"additional_details"`
}

type recordJSONIn struct {
	CompanyName       *string        `json:"company_name"`
	ReportDate        *string        `json:"report_date"`
	ProfitBeforeTax   *string        `json:"profit_before_tax"`
	AdditionalDetails map[string]any `json:"additional_details"`
}

// Str returns a pointer to s.
func Str(s string) *string { return &s }

// ValueOr returns *p, or NotAvailable when p is nil.
func ValueOr(p *string) string {
	if p == nil {
		return NotAvailable
	}
	return *p
}

// Accepted reports whether the record passes the acceptance gate:
// company_name is present and non-empty.
func (r *Record) Accepted() bool {
	return r != nil && r.CompanyName != nil && *r.CompanyName != ""
}

// Details returns AdditionalDetails, never nil.
func (r Record) Details() map[string]any {
	if r.AdditionalDetails == nil {
		return map[string]any{}
	}
	return r.AdditionalDetails
}

// Clone returns a copy that shares no mutable state with r.
func (r Record) Clone() Record {
	out := Record{AdditionalDetails: map[string]any{}}
	if r.CompanyName != nil {
		out.CompanyName = Str(*r.CompanyName)
	}
	if r.ReportDate != nil {
		out.ReportDate = Str(*r.ReportDate)
	}
	if r.ProfitBeforeTax != nil {
		out.ProfitBeforeTax = Str(*r.ProfitBeforeTax)
	}
	if r.AdditionalDetails != nil {
		out.AdditionalDetails = maps.Clone(r.AdditionalDetails)
	}
	return out
}

func (r Record) MarshalJSON() ([]byte, error) {
	return EncodeNoEscape(recordJSON{
		CompanyName:       ValueOr(r.CompanyName),
		ReportDate:        ValueOr(r.ReportDate),
		ProfitBeforeTax:   ValueOr(r.ProfitBeforeTax),
		AdditionalDetails: r.Details(),
	})
}

// UnmarshalJSON keeps string values verbatim; only null or missing keys become absent.
func (r *Record) UnmarshalJSON(b []byte) error {
	var in recordJSONIn
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = Record{
		CompanyName:       in.CompanyName,
		ReportDate:        in.ReportDate,
		ProfitBeforeTax:   in.ProfitBeforeTax,
		AdditionalDetails: in.AdditionalDetails,
	}
	if r.AdditionalDetails == nil {
		r.AdditionalDetails = map[string]any{}
	}
	return nil
}

// EncodeNoEscape marshals v without HTML escaping and without a trailing newline.
func EncodeNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
