package synth

import (
	"context"

	"github.com/dkhwang/memoir/internal/model"
)

// Synthesizer drives the external research-and-writing subsystem. One call
// is one complete report: it blocks until the subsystem finishes (no
// streaming contract). Failure carries a diagnostic error; the orchestrator
// substitutes a fallback body so the artifact is never left undefined.
type Synthesizer interface {
	// Name returns the synthesizer name
	Name() string

	// Synthesize runs research and writing to completion.
	Synthesize(ctx context.Context, req Request) (*Result, error)
}

// Request describes one synthesis run.
type Request struct {
	// Query is the natural-language report brief
	Query string

	// ReportType selects the subsystem's report style
	ReportType string

	// Mode tells the subsystem where its research material comes from
	Mode model.SourceMode

	// SourceURLs backs ModeURLList
	SourceURLs []string

	// DocumentPath backs ModeDocumentPath; the subsystem also does web
	// research around the documents (hybrid synthesis)
	DocumentPath string

	// Profile names the subsystem config profile (language, models)
	Profile string
}

// Result is the synthesizer's output.
type Result struct {
	Body   string
	Images []model.ImageRef
}
