package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"github.com/dkhwang/memoir/internal/llm"
	"github.com/dkhwang/memoir/internal/model"
)

// ErrNoMatch means the selector LLM looked at every candidate and found
// none plausible (the "N/A" sentinel).
var ErrNoMatch = errors.New("no candidate matches the company")

// ErrSelectorInvalid means the selector LLM returned something unusable:
// non-numeric, negative, or out of range. The LLM is an untrusted oracle,
// so this is an expected outcome, never a panic. No retry is attempted.
var ErrSelectorInvalid = errors.New("selector returned an invalid candidate index")

const selectorSentinel = "N/A"

// Selector picks the single best registry candidate for a company by
// asking an LLM to compare candidate records against the source URL.
type Selector struct {
	provider llm.Provider
}

// NewSelector creates a new identifier selector
func NewSelector(provider llm.Provider) *Selector {
	return &Selector{provider: provider}
}

type selectorPayload struct {
	Choice string `json:"choice"`
}

// Select returns the index of the best-matching candidate, ErrNoMatch when
// the model declines to pick, or ErrSelectorInvalid for unusable output.
// A returned index always satisfies 0 <= index < len(candidates).
func (s *Selector) Select(ctx context.Context, identity model.CompanyIdentity, candidates []model.RegistryCandidate, sourceURL string) (int, error) {
	if len(candidates) == 0 {
		return 0, ErrNoMatch
	}

	resp, err := s.provider.GenerateJSON(ctx, llm.Request{
		System: selectorSystemPrompt(identity, candidates, sourceURL),
		User:   fmt.Sprintf("Pick the candidate that is %s (source url %s).", identity.FullName, sourceURL),
	})
	if err != nil {
		return 0, fmt.Errorf("select candidate: %w", err)
	}

	choice, perr := parseChoice(resp.Content)
	if perr != nil {
		return 0, ErrSelectorInvalid
	}
	if strings.EqualFold(choice, selectorSentinel) {
		return 0, ErrNoMatch
	}

	index, cerr := strconv.Atoi(strings.TrimSpace(choice))
	if cerr != nil || index < 0 || index >= len(candidates) {
		return 0, ErrSelectorInvalid
	}

	return index, nil
}

func parseChoice(content string) (string, error) {
	var payload selectorPayload
	if err := json.Unmarshal([]byte(content), &payload); err == nil && payload.Choice != "" {
		return payload.Choice, nil
	}

	repaired, err := jsonrepair.RepairJSON(content)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return "", err
	}
	if payload.Choice == "" {
		return "", errors.New("empty choice")
	}
	return payload.Choice, nil
}

func selectorSystemPrompt(identity model.CompanyIdentity, candidates []model.RegistryCandidate, sourceURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You will get a corporation name and a list of candidate registry records. Your job is to pick the single record that is the same corporation.

This is the company name: '%s'
This is the company's website: '%s'
These are the candidate records, numbered from 0:
`, identity.FullName, sourceURL)

	for i, c := range candidates {
		raw, _ := json.Marshal(c.Raw)
		fmt.Fprintf(&b, "%d. name=%q homepage=%q record=%s\n", i, c.DisplayName, c.HomepageURL, raw)
	}

	b.WriteString(`
Carefully compare each candidate's homepage against the company's website, and each candidate's name against the company name.
If exactly one candidate matches, answer with its number. If none match, answer with "N/A".

Respond ONLY with a JSON object in the following format (nothing else):
{
    "choice": "candidate_number_or_NA"
}`)

	return b.String()
}
