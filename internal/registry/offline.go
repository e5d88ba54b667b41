package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dkhwang/memoir/internal/cache"
	"github.com/dkhwang/memoir/internal/model"
)

// OfflineMatcher scans a static registry snapshot (a JSON array of
// records, UTF-8) for substring matches. The scan is O(n) per attempt;
// the snapshot is bounded and cached across calls so repeated matches in
// one session do not re-read the file.
type OfflineMatcher struct {
	snapshotPath string
	cache        cache.Cache // nil disables snapshot caching
}

// NewOfflineMatcher creates a matcher over the given snapshot file
func NewOfflineMatcher(snapshotPath string, c cache.Cache) *OfflineMatcher {
	return &OfflineMatcher{
		snapshotPath: snapshotPath,
		cache:        c,
	}
}

// Name returns the strategy name
func (m *OfflineMatcher) Name() string {
	return "offline-scan"
}

// Match scans every record's serialized text for the full name, retrying
// with the short name on zero hits. A missing or unreadable snapshot is a
// lookup error, not a miss.
func (m *OfflineMatcher) Match(ctx context.Context, identity model.CompanyIdentity) MatchResult {
	records, err := m.loadSnapshot()
	if err != nil {
		return LookupError(err.Error())
	}
	if len(records) == 0 {
		return NotFound(true)
	}

	hits := scanRecords(records, identity.FullName)
	if len(hits) == 0 {
		if short := identity.MatchShortName(); short != "" && short != identity.FullName {
			hits = scanRecords(records, short)
		}
	}
	if len(hits) == 0 {
		return NotFound(false)
	}

	candidates := make([]model.RegistryCandidate, 0, len(hits))
	for _, rec := range hits {
		candidates = append(candidates, candidateFromRecord(rec))
	}
	return Found(candidates)
}

// scanRecords returns every record whose serialized form contains needle.
// Order of the snapshot is preserved.
func scanRecords(records []map[string]any, needle string) []map[string]any {
	if needle == "" {
		return nil
	}
	var hits []map[string]any
	for _, rec := range records {
		serialized, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		if strings.Contains(string(serialized), needle) {
			hits = append(hits, rec)
		}
	}
	return hits
}

func (m *OfflineMatcher) loadSnapshot() ([]map[string]any, error) {
	key := cache.Key("snapshot", m.snapshotPath)
	if m.cache != nil {
		if data, found := m.cache.Get(key); found {
			var records []map[string]any
			if err := json.Unmarshal(data, &records); err == nil {
				return records, nil
			}
		}
	}

	data, err := os.ReadFile(m.snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("load registry snapshot %s: %w", m.snapshotPath, err)
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode registry snapshot %s: %w", m.snapshotPath, err)
	}

	if m.cache != nil {
		_ = m.cache.Set(key, data, 0)
	}
	return records, nil
}
