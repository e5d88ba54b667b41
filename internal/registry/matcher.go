package registry

import (
	"context"

	"github.com/dkhwang/memoir/internal/model"
)

// MatchStatus tags the outcome of a registry match.
type MatchStatus string

const (
	// StatusFound means at least one candidate matched.
	StatusFound MatchStatus = "found"

	// StatusNotFound means the registry was consulted successfully but
	// holds no matching corporation.
	StatusNotFound MatchStatus = "not_found"

	// StatusLookupError means the registry could not be consulted at all
	// (missing snapshot, remote failure). Distinct from NotFound; the two
	// drive different fallback reasons downstream.
	StatusLookupError MatchStatus = "lookup_error"
)

// MatchResult is the tagged outcome of a registry match. Candidates is
// non-empty exactly when Status is StatusFound.
type MatchResult struct {
	Status     MatchStatus
	Candidates []model.RegistryCandidate

	// EmptyScan marks a NotFound that came from scanning an empty registry
	// rather than from a genuine miss. Both normalize to NotFound, but the
	// distinction is kept for diagnostics.
	EmptyScan bool

	// Detail describes a lookup error
	Detail string
}

// Found builds a successful match result
func Found(candidates []model.RegistryCandidate) MatchResult {
	return MatchResult{Status: StatusFound, Candidates: candidates}
}

// NotFound builds a miss result
func NotFound(emptyScan bool) MatchResult {
	return MatchResult{Status: StatusNotFound, EmptyScan: emptyScan}
}

// LookupError builds an error result
func LookupError(detail string) MatchResult {
	return MatchResult{Status: StatusLookupError, Detail: detail}
}

// Matcher searches a jurisdiction's corporate registry for a company
// identity. Implementations never return a Go error for a miss; every
// outcome is a tagged MatchResult.
type Matcher interface {
	// Name returns the strategy name
	Name() string

	// Match searches for the identity's full name, then its short name.
	Match(ctx context.Context, identity model.CompanyIdentity) MatchResult
}

// candidateFromRecord maps an opaque registry record onto the candidate
// fields the pipeline cares about, trying the key spellings the known
// registries use.
func candidateFromRecord(record map[string]any) model.RegistryCandidate {
	c := model.RegistryCandidate{Raw: record}
	c.ID = firstString(record, "corp_code", "registry_id", "id")
	c.DisplayName = firstString(record, "corp_name", "display_name", "name")
	c.HomepageURL = firstString(record, "homepage", "homepage_url", "hm_url", "url")
	return c
}

func firstString(record map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := record[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
