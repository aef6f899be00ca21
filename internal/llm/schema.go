package llm

// BuildRecordJSONSchema returns the JSON-Schema for a normalized model reply as a generic map.
// It is used locally to flag odd replies; it never rejects one.
func BuildRecordJSONSchema() map[string]any {
	props := map[string]any{
		"company_name":       map[string]any{"type": "string"},
		"report_date":        map[string]any{"type": "string"},
		"profit_before_tax":  map[string]any{"type": "string"},
		"additional_details": map[string]any{"type": "object"},
	}
	required := []string{"company_name", "report_date", "profit_before_tax", "additional_details"}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}
