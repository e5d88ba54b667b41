package model

// UnknownName is the sentinel the resolver LLM returns when it cannot
// determine a company name from the URL. An identity carrying it is unusable.
const UnknownName = "unknown"

// CompanyIdentity is the normalized identity record produced once per report
// request by the company resolver. Immutable after construction.
type CompanyIdentity struct {
	FullName    string   `json:"full_name"`             // Full legal/trading name
	ShortName   string   `json:"short_name,omitempty"`  // First-token form, secondary match key
	Ticker      string   `json:"ticker,omitempty"`      // Ticker or registry hint
	Description string   `json:"description,omitempty"` // One-paragraph description
	Industry    string   `json:"industry,omitempty"`    // Primary industry or sector
	Competitors []string `json:"competitors,omitempty"` // Up to 5 competitor names, ordered
}

// Usable reports whether the identity carries a real company name.
// The resolver may legitimately produce the unknown sentinel; callers
// must check before building a report brief.
func (id CompanyIdentity) Usable() bool {
	switch id.FullName {
	case "", UnknownName, "N/A":
		return false
	}
	return true
}

// MatchShortName returns the secondary match key: the explicit short name if
// present, otherwise the first whitespace-separated token of the full name.
func (id CompanyIdentity) MatchShortName() string {
	if id.ShortName != "" && id.ShortName != "N/A" {
		return id.ShortName
	}
	return firstToken(id.FullName)
}

func firstToken(s string) string {
	for i, r := range s {
		if r == ' ' || r == '\t' {
			return s[:i]
		}
	}
	return s
}

// RegistryCandidate is one row from a jurisdiction's corporate registry.
// Raw preserves the record as loaded so the selector prompt can show the
// complete row, whatever fields the registry happens to carry.
type RegistryCandidate struct {
	ID          string         `json:"registry_id"`            // e.g. 8-digit DART corp code
	DisplayName string         `json:"display_name,omitempty"` // Registered corporate name
	HomepageURL string         `json:"homepage_url,omitempty"` // Registered homepage, if any
	Raw         map[string]any `json:"raw,omitempty"`          // Opaque source record
}
