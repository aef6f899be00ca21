package llm

import "strings"

// BuildPrompt composes the single-turn extraction instruction. The report text is
// embedded verbatim and never truncated.
func BuildPrompt(text string) string {
	parts := []string{
		"Extract the following financial entities from the report text below:",
		"  • Company Name",
		"  • Report Date",
		"  • Profit Before Tax",
		"  (Bonus: Any additional relevant financial details)",
		"",
		"Return ONLY valid JSON with the following structure:",
		"{",
		`    "company_name": "...",`,
		`    "report_date": "...",`,
		`    "profit_before_tax": "...",`,
		`    "additional_details": {}`,
		"}",
		"",
		"Report Text:",
	}
	var b strings.Builder
	b.WriteString(strings.Join(parts, "\n"))
	b.WriteString("\n")
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}
