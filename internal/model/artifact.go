package model

import "time"

// Jurisdiction selects which regulatory filing ecosystem a report targets.
type Jurisdiction string

const (
	JurisdictionGlobal Jurisdiction = "global" // US SEC-style full-text filing search
	JurisdictionKorea  Jurisdiction = "korea"  // Korean DART corporate registry
)

// Valid reports whether j is one of the supported jurisdictions.
func (j Jurisdiction) Valid() bool {
	return j == JurisdictionGlobal || j == JurisdictionKorea
}

// Language returns the report output language for the jurisdiction.
func (j Jurisdiction) Language() string {
	if j == JurisdictionKorea {
		return "korean"
	}
	return "english"
}

// SourceKind identifies which filing ecosystem a resolved source came from.
type SourceKind string

const (
	SourceGlobalFilings SourceKind = "global_filings"
	SourceLocalRegistry SourceKind = "local_registry"
)

// SourceMode tells the synthesizer where its research material comes from.
type SourceMode string

const (
	ModeURLList      SourceMode = "url_list"      // Filing URLs from full-text search
	ModeDocumentPath SourceMode = "document_path" // Locally fetched financial statements
	ModeWebOnly      SourceMode = "web_only"      // Best-effort web research
)

// FallbackReason records why the pipeline degraded to a lower-fidelity
// data source. It is a first-class output: the consumer uses it to explain
// a web-only report, and tests assert on it per injected failure.
type FallbackReason string

const (
	FallbackNone            FallbackReason = ""                 // Full-fidelity run
	FallbackNotInRegistry   FallbackReason = "not_in_registry"  // Registry scan found nothing
	FallbackLookupError     FallbackReason = "lookup_error"     // Registry/filings lookup failed
	FallbackNotInMatchSet   FallbackReason = "not_in_match_set" // Selector saw no plausible candidate
	FallbackSelectorInvalid FallbackReason = "selector_invalid" // Selector output unusable
	FallbackDocsUnavailable FallbackReason = "docs_unavailable" // Confirmed id but no documents
)

// ResolvedSource describes how the pipeline sourced its research material.
// Exactly one of the success fields (RegistryID/DocumentPath) or Reason is
// populated; the orchestrator alone constructs these.
type ResolvedSource struct {
	Kind         SourceKind     `json:"source_kind"`
	Mode         SourceMode     `json:"source_mode"`
	RegistryID   string         `json:"registry_id,omitempty"`
	DocumentPath string         `json:"document_path,omitempty"`
	SourceURLs   []string       `json:"source_urls,omitempty"`
	Reason       FallbackReason `json:"fallback_reason,omitempty"`
}

// Degraded reports whether the run fell back to web-only research.
func (s ResolvedSource) Degraded() bool {
	return s.Reason != FallbackNone
}

// ImageRef points at an auxiliary image produced alongside a report.
type ImageRef struct {
	URL     string `json:"url,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// ReportArtifact is the terminal entity of a pipeline run: one immutable
// report per (url, jurisdiction) pair, held in the session store until the
// user removes it.
type ReportArtifact struct {
	RequestURL   string          `json:"request_url"`
	Jurisdiction Jurisdiction    `json:"jurisdiction"`
	Identity     CompanyIdentity `json:"identity"`
	Source       ResolvedSource  `json:"source"`
	Body         string          `json:"body"`
	Images       []ImageRef      `json:"images,omitempty"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// Key returns the identity key for idempotence and duplicate-run guarding.
func (a *ReportArtifact) Key() ArtifactKey {
	return ArtifactKey{URL: a.RequestURL, Jurisdiction: a.Jurisdiction}
}

// ArtifactKey identifies a report request. Two runs with the same key must
// yield the same artifact.
type ArtifactKey struct {
	URL          string
	Jurisdiction Jurisdiction
}
