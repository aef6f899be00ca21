package fallback

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joseph-ayodele/finreport-extractor/constants"
)

// LoadIssuers reads an issuer lookup table from a JSON file:
//
//	[{"fragment": "Eveready", "canonical": "Eveready Industries India Ltd.", "fold_case": true}]
//
// Entries keep file order.
func LoadIssuers(path string) ([]constants.Issuer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read issuers: %w", err)
	}
	var out []constants.Issuer
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode issuers: %w", err)
	}
	for i, is := range out {
		if strings.TrimSpace(is.Fragment) == "" || strings.TrimSpace(is.Canonical) == "" {
			return nil, fmt.Errorf("issuer %d: fragment and canonical are required", i)
		}
	}
	return out, nil
}
