package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dkhwang/memoir/internal/filings"
	"github.com/dkhwang/memoir/internal/model"
	"github.com/dkhwang/memoir/internal/registry"
	"github.com/dkhwang/memoir/internal/resolve"
	"github.com/dkhwang/memoir/internal/synth"
)

// ErrUnknownCompany means identity resolution finished but could not name
// the company. This is the pipeline's only fatal outcome: without an
// identity there is nothing to research, so no artifact is produced.
var ErrUnknownCompany = errors.New("company could not be identified from the url")

// IdentityResolver turns a company URL into a normalized identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, url, language string) (model.CompanyIdentity, error)
}

// CandidateSelector picks the best registry candidate for an identity.
type CandidateSelector interface {
	Select(ctx context.Context, identity model.CompanyIdentity, candidates []model.RegistryCandidate, sourceURL string) (int, error)
}

// FilingSearcher runs a full-text search over the global filing index.
type FilingSearcher interface {
	Search(ctx context.Context, companyName, tickerHint string) (*filings.FilingSet, error)
}

// FinancialsFetcher extracts financial statements for a confirmed registry
// id into the workspace, returning the document directory ("" for none).
type FinancialsFetcher interface {
	FetchFinancials(ctx context.Context, registryID, workspaceDir string) (string, error)
}

// Deps are the orchestrator's stage implementations.
type Deps struct {
	Resolver    IdentityResolver
	Matcher     registry.Matcher
	Selector    CandidateSelector
	Filings     FilingSearcher
	Financials  FinancialsFetcher
	Synthesizer synth.Synthesizer
}

// Orchestrator runs the report pipeline: identity resolution, the
// jurisdiction-specific source branch with its fallback ladder, synthesis,
// and artifact storage. Every degradation past identity resolution turns
// into a recorded fallback, never a failed run.
type Orchestrator struct {
	deps          Deps
	store         *Store
	config        *model.Config
	workspaceRoot string
	now           func() time.Time
}

// NewOrchestrator creates a new pipeline orchestrator
func NewOrchestrator(cfg *model.Config, deps Deps) *Orchestrator {
	return &Orchestrator{
		deps:   deps,
		store:  NewStore(),
		config: cfg,
		now:    time.Now,
	}
}

// Store returns the session artifact store
func (o *Orchestrator) Store() *Store {
	return o.store
}

// Generate produces the report artifact for (url, jurisdiction). Repeat
// calls with the same pair return the stored artifact without rerunning
// anything; a concurrent duplicate gets ErrRunInProgress.
func (o *Orchestrator) Generate(ctx context.Context, url string, jurisdiction model.Jurisdiction) (*model.ReportArtifact, error) {
	if !jurisdiction.Valid() {
		return nil, fmt.Errorf("unsupported jurisdiction %q", jurisdiction)
	}

	key := model.ArtifactKey{URL: url, Jurisdiction: jurisdiction}
	cached, release, err := o.store.Begin(key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		o.logf("reusing stored report for %s (%s)", url, jurisdiction)
		return cached, nil
	}
	defer release()

	identity, err := o.deps.Resolver.Resolve(ctx, url, jurisdiction.Language())
	if err != nil {
		return nil, err
	}
	if !identity.Usable() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompany, url)
	}
	o.logf("resolved %s as %q", url, identity.FullName)

	var source model.ResolvedSource
	var workspace *Workspace
	if jurisdiction == model.JurisdictionKorea {
		source, workspace = o.resolveLocalSource(ctx, identity, url)
	} else {
		source = o.resolveGlobalSource(ctx, identity)
	}
	if workspace != nil {
		// The workspace must outlive synthesis: document-backed runs read
		// from it until the report is finished.
		defer func() {
			if err := workspace.Cleanup(); err != nil {
				o.logf("workspace cleanup failed: %v", err)
			}
		}()
	}
	if source.Degraded() {
		o.logf("falling back to web-only research: %s", source.Reason)
	}

	body, images := o.synthesize(ctx, identity, jurisdiction, source)

	artifact := &model.ReportArtifact{
		RequestURL:   url,
		Jurisdiction: jurisdiction,
		Identity:     identity,
		Source:       source,
		Body:         body,
		Images:       images,
		GeneratedAt:  o.now().UTC(),
	}
	if err := o.store.Append(artifact); err != nil {
		return nil, err
	}
	return artifact, nil
}

// resolveGlobalSource runs the full-text filing search. A lookup failure
// degrades to web-only with a recorded reason; an empty result set is a
// valid outcome and degrades silently.
func (o *Orchestrator) resolveGlobalSource(ctx context.Context, identity model.CompanyIdentity) model.ResolvedSource {
	set, err := o.deps.Filings.Search(ctx, identity.FullName, identity.Ticker)
	if err != nil {
		o.logf("filing search failed: %v", err)
		return model.ResolvedSource{
			Kind:   model.SourceGlobalFilings,
			Mode:   model.ModeWebOnly,
			Reason: model.FallbackLookupError,
		}
	}

	urls := set.URLs(o.config.Filings.MaxURLs)
	if len(urls) == 0 {
		return model.ResolvedSource{
			Kind: model.SourceGlobalFilings,
			Mode: model.ModeWebOnly,
		}
	}

	return model.ResolvedSource{
		Kind:       model.SourceGlobalFilings,
		Mode:       model.ModeURLList,
		SourceURLs: urls,
	}
}

// resolveLocalSource walks the local-registry ladder: match, select,
// fetch. Each rung that gives way drops the run to web-only with the rung
// named as the reason. The returned workspace is non-nil only when
// documents were actually fetched.
func (o *Orchestrator) resolveLocalSource(ctx context.Context, identity model.CompanyIdentity, sourceURL string) (model.ResolvedSource, *Workspace) {
	match := o.deps.Matcher.Match(ctx, identity)
	switch match.Status {
	case registry.StatusLookupError:
		o.logf("registry lookup failed: %s", match.Detail)
		return o.localFallback(model.FallbackLookupError), nil
	case registry.StatusNotFound:
		return o.localFallback(model.FallbackNotInRegistry), nil
	}

	index, err := o.deps.Selector.Select(ctx, identity, match.Candidates, sourceURL)
	if err != nil {
		switch {
		case errors.Is(err, resolve.ErrNoMatch):
			return o.localFallback(model.FallbackNotInMatchSet), nil
		case errors.Is(err, resolve.ErrSelectorInvalid):
			return o.localFallback(model.FallbackSelectorInvalid), nil
		default:
			o.logf("candidate selection failed: %v", err)
			return o.localFallback(model.FallbackLookupError), nil
		}
	}
	candidate := match.Candidates[index]
	o.logf("registry match confirmed: %s (%s)", candidate.DisplayName, candidate.ID)

	workspace, err := NewWorkspace(o.workspaceRoot)
	if err != nil {
		o.logf("workspace unavailable: %v", err)
		return o.localFallback(model.FallbackDocsUnavailable), nil
	}

	docPath, err := o.deps.Financials.FetchFinancials(ctx, candidate.ID, workspace.Dir)
	if err != nil || docPath == "" {
		if err != nil {
			o.logf("document fetch failed: %v", err)
		}
		if cerr := workspace.Cleanup(); cerr != nil {
			o.logf("workspace cleanup failed: %v", cerr)
		}
		return o.localFallback(model.FallbackDocsUnavailable), nil
	}

	return model.ResolvedSource{
		Kind:         model.SourceLocalRegistry,
		Mode:         model.ModeDocumentPath,
		RegistryID:   candidate.ID,
		DocumentPath: docPath,
	}, workspace
}

func (o *Orchestrator) localFallback(reason model.FallbackReason) model.ResolvedSource {
	return model.ResolvedSource{
		Kind:   model.SourceLocalRegistry,
		Mode:   model.ModeWebOnly,
		Reason: reason,
	}
}

// synthesize runs report synthesis. Synthesis failure never fails the run:
// the artifact gets a diagnostic body instead.
func (o *Orchestrator) synthesize(ctx context.Context, identity model.CompanyIdentity, jurisdiction model.Jurisdiction, source model.ResolvedSource) (string, []model.ImageRef) {
	profile := o.config.Synthesizer.Profile
	if jurisdiction == model.JurisdictionKorea {
		profile = o.config.Synthesizer.ProfileKR
	}

	result, err := o.deps.Synthesizer.Synthesize(ctx, synth.Request{
		Query:        synth.BuildBrief(identity, jurisdiction),
		ReportType:   o.config.Synthesizer.ReportType,
		Mode:         source.Mode,
		SourceURLs:   source.SourceURLs,
		DocumentPath: source.DocumentPath,
		Profile:      profile,
	})
	if err != nil {
		o.logf("synthesis failed: %v", err)
		return synth.FallbackBody(identity, err), nil
	}
	return result.Body, result.Images
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
