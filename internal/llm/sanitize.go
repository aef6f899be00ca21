package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

// ErrNotObject is returned by NormalizeRecordJSON when the reply parses but is not a JSON object.
var ErrNotObject = errors.New("json value is not an object")

var recordKeys = map[string]struct{}{
	"company_name": {}, "report_date": {}, "profit_before_tax": {}, "additional_details": {},
}

// NormalizeRecordJSON
// - Renames common synonyms (pbt -> profit_before_tax, ...). company_name has none.
// - Keeps company_name as the model sent it when truthy, drops it when falsy
// - Trims report_date and profit_before_tax; formats numbers, drops other types
// - Forces additional_details to an object
// - Removes unknown top-level keys
func NormalizeRecordJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok || m == nil {
		return nil, nil, fmt.Errorf("sanitize: %w", ErrNotObject)
	}

	dropped := make([]string, 0, 4)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) synonyms
	renamed("date", "report_date")
	renamed("reportDate", "report_date")
	renamed("profit", "profit_before_tax")
	renamed("pbt", "profit_before_tax")
	renamed("profitBeforeTax", "profit_before_tax")
	renamed("details", "additional_details")
	renamed("additionalDetails", "additional_details")

	// 2a) company_name: strings kept as sent, other values only when truthy
	if v, ok := m["company_name"]; ok {
		switch t := v.(type) {
		case string:
		case nil:
			delete(m, "company_name")
			dropped = append(dropped, "company_name(null)")
		default:
			if !truthy(t) {
				delete(m, "company_name")
				dropped = append(dropped, "company_name(falsy)")
				break
			}
			s, err := scalarText(t)
			if err != nil {
				return nil, dropped, fmt.Errorf("sanitize: company_name: %w", err)
			}
			m["company_name"] = s
		}
	}

	// 2b) the other scalar fields are strings
	for _, k := range []string{"report_date", "profit_before_tax"} {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			m[k] = strings.TrimSpace(t)
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			delete(m, k)
			dropped = append(dropped, k+"(null)")
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	// 3) additional_details must be an object
	switch m["additional_details"].(type) {
	case map[string]any:
	case nil:
		if _, present := m["additional_details"]; present {
			dropped = append(dropped, "additional_details(null)")
		}
		m["additional_details"] = map[string]any{}
	default:
		dropped = append(dropped, "additional_details(type)")
		m["additional_details"] = map[string]any{}
	}

	// 4) unknown keys
	for k := range maps.Clone(m) {
		if _, ok := recordKeys[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Debug("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// truthy follows JSON-decoded truthiness: non-empty strings, arrays and objects,
// non-zero numbers and true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// scalarText renders a truthy non-string value as text: numbers and booleans
// in their JSON form, arrays and objects as compact JSON.
func scalarText(v any) (string, error) {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
