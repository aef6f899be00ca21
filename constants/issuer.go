package constants

// Issuer maps a text fragment to the canonical company name reported by the fallback extractor.
type Issuer struct {
	Fragment  string `json:"fragment"`
	Canonical string `json:"canonical"`
	FoldCase  bool   `json:"fold_case,omitempty"`
}

// DefaultIssuers is the built-in lookup table; order matters, first match wins.
var DefaultIssuers = []Issuer{
	{Fragment: "Eveready", Canonical: "Eveready Industries India Ltd.", FoldCase: true},
	{Fragment: "Amara Raja", Canonical: "Amara Raja Energy & Mobility Limited"},
}
