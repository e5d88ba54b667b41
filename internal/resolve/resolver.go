package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/dkhwang/memoir/internal/llm"
	"github.com/dkhwang/memoir/internal/model"
	"github.com/dkhwang/memoir/internal/probe"
	"github.com/dkhwang/memoir/internal/search"
)

// ResolutionError means the LLM produced output that could not be parsed
// into a company identity. It carries the raw text for display; callers
// branch on this type rather than inspecting strings.
type ResolutionError struct {
	RawText string
}

func (e *ResolutionError) Error() string {
	return "could not parse company identity from LLM output"
}

// identityPayload is the JSON contract the resolver LLM is asked to fill.
type identityPayload struct {
	CompanyName      string   `json:"company_name"`
	CompanyFirstName string   `json:"company_first_name"`
	Ticker           string   `json:"ticker"`
	Description      string   `json:"description"`
	Industry         string   `json:"industry"`
	Competitors      []string `json:"competitors"`
}

// Resolver turns a company URL into a normalized identity via one LLM call
// that may route through the web-search sub-tool. A homepage probe, when
// available, adds page title/description context to the prompt.
type Resolver struct {
	provider llm.Provider
	prober   *probe.Prober // nil disables homepage probing
	verbose  bool
}

// NewResolver creates a new company resolver
func NewResolver(provider llm.Provider, prober *probe.Prober, verbose bool) *Resolver {
	return &Resolver{
		provider: provider,
		prober:   prober,
		verbose:  verbose,
	}
}

// Resolve produces a CompanyIdentity for the given URL in the given output
// language. Returns *ResolutionError when the model's output is not usable
// JSON; callers must additionally check identity.Usable() for the unknown
// sentinel before proceeding.
func (r *Resolver) Resolve(ctx context.Context, url, language string) (model.CompanyIdentity, error) {
	user := fmt.Sprintf("Give me information about this company %s", url)

	if r.prober != nil {
		probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		info, err := r.prober.Probe(probeCtx, url)
		cancel()
		if err != nil {
			if r.verbose {
				fmt.Fprintf(os.Stderr, "homepage probe skipped: %v\n", err)
			}
		} else if info.Title != "" || info.Description != "" {
			user += fmt.Sprintf("\nHomepage title: %q\nHomepage description: %q", info.Title, info.Description)
		}
	}

	resp, err := r.provider.GenerateJSON(ctx, llm.Request{
		System:      resolverSystemPrompt(language),
		User:        user,
		AllowSearch: true,
		SearchHint:  search.CompanyQuery(url),
	})
	if err != nil {
		return model.CompanyIdentity{}, fmt.Errorf("resolve identity: %w", err)
	}

	payload, perr := parseIdentity(resp.Content)
	if perr != nil {
		return model.CompanyIdentity{}, perr
	}

	identity := model.CompanyIdentity{
		FullName:    strings.TrimSpace(payload.CompanyName),
		ShortName:   strings.TrimSpace(payload.CompanyFirstName),
		Ticker:      strings.TrimSpace(payload.Ticker),
		Description: strings.TrimSpace(payload.Description),
		Industry:    strings.TrimSpace(payload.Industry),
		Competitors: trimCompetitors(payload.Competitors),
	}
	if identity.FullName == "" {
		identity.FullName = model.UnknownName
	}

	return identity, nil
}

// parseIdentity unmarshals the model output, repairing malformed JSON
// first. Both the repair and the unmarshal failing means the output is
// garbage: surface it as a ResolutionError.
func parseIdentity(content string) (*identityPayload, error) {
	var payload identityPayload
	if err := json.Unmarshal([]byte(content), &payload); err == nil {
		return &payload, nil
	}

	repaired, err := jsonrepair.RepairJSON(content)
	if err != nil {
		return nil, &ResolutionError{RawText: content}
	}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return nil, &ResolutionError{RawText: content}
	}
	return &payload, nil
}

func trimCompetitors(in []string) []string {
	out := make([]string, 0, 5)
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out = append(out, c)
		if len(out) == 5 {
			break
		}
	}
	return out
}

func resolverSystemPrompt(language string) string {
	return fmt.Sprintf(`You will get a company or organization url link. Your job is to get company information.

Generate these for each user query.

1. Company Name. Get the company name from its url.
2. Name of the company's industry.
3. Carefully understand the industry of the company and name the top 5 related industry competitors.
4. Generate all of 'company_name', 'company_first_name', 'ticker', 'description', 'industry' and 'competitors'.
5. Generate all information only in %s. Even if the company name is in another language, translate it to %s.
6. If you cannot determine the company from the url, use web search. If it still cannot be determined, set company_name to "unknown".

Respond ONLY with a JSON object in the following format (nothing else):
{
    "company_name": "Full company name",
    "company_first_name": "Only first name of company",
    "ticker": "Ticker of company",
    "description": "Company description",
    "industry": "Primary industry or sector",
    "competitors": ["Competitor 1", "Competitor 2", "Competitor 3", "Competitor 4", "Competitor 5"]
}`, language, language)
}
