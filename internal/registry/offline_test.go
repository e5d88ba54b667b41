package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkhwang/memoir/internal/cache"
	"github.com/dkhwang/memoir/internal/model"
)

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corp_list.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

const testSnapshot = `[
	{"corp_code": "00126380", "corp_name": "삼성전자", "homepage": "www.samsung.com"},
	{"corp_code": "00164742", "corp_name": "현대자동차", "homepage": "www.hyundai.com"},
	{"corp_code": "00401731", "corp_name": "삼성전자서비스", "homepage": "www.samsungsvc.co.kr"}
]`

func TestOfflineMatcher_FullNameMatch(t *testing.T) {
	m := NewOfflineMatcher(writeSnapshot(t, testSnapshot), nil)

	result := m.Match(context.Background(), model.CompanyIdentity{FullName: "현대자동차"})
	if result.Status != StatusFound {
		t.Fatalf("expected found, got %s (%s)", result.Status, result.Detail)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(result.Candidates))
	}
	if result.Candidates[0].ID != "00164742" {
		t.Errorf("expected corp code 00164742, got %q", result.Candidates[0].ID)
	}
	if result.Candidates[0].HomepageURL != "www.hyundai.com" {
		t.Errorf("unexpected homepage: %q", result.Candidates[0].HomepageURL)
	}
}

func TestOfflineMatcher_ShortNameRetry(t *testing.T) {
	m := NewOfflineMatcher(writeSnapshot(t, testSnapshot), nil)

	// The full name misses, the short name hits both 삼성전자 records
	result := m.Match(context.Background(), model.CompanyIdentity{
		FullName:  "삼성전자 주식회사",
		ShortName: "삼성전자",
	})
	if result.Status != StatusFound {
		t.Fatalf("expected found, got %s", result.Status)
	}
	if len(result.Candidates) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(result.Candidates))
	}
}

func TestOfflineMatcher_NotFound(t *testing.T) {
	m := NewOfflineMatcher(writeSnapshot(t, testSnapshot), nil)

	result := m.Match(context.Background(), model.CompanyIdentity{FullName: "Acme"})
	if result.Status != StatusNotFound {
		t.Fatalf("expected not_found, got %s", result.Status)
	}
	if result.EmptyScan {
		t.Error("a miss against a populated snapshot is not an empty scan")
	}
}

func TestOfflineMatcher_EmptySnapshot(t *testing.T) {
	m := NewOfflineMatcher(writeSnapshot(t, "[]"), nil)

	result := m.Match(context.Background(), model.CompanyIdentity{FullName: "Acme"})
	if result.Status != StatusNotFound {
		t.Fatalf("expected not_found, got %s", result.Status)
	}
	if !result.EmptyScan {
		t.Error("empty snapshot should be flagged as empty scan")
	}
}

func TestOfflineMatcher_MissingSnapshot(t *testing.T) {
	m := NewOfflineMatcher(filepath.Join(t.TempDir(), "nope.json"), nil)

	result := m.Match(context.Background(), model.CompanyIdentity{FullName: "Acme"})
	if result.Status != StatusLookupError {
		t.Fatalf("expected lookup_error, got %s", result.Status)
	}
	if result.Detail == "" {
		t.Error("lookup error should carry detail")
	}
}

func TestOfflineMatcher_MalformedSnapshot(t *testing.T) {
	m := NewOfflineMatcher(writeSnapshot(t, "{not json"), nil)

	result := m.Match(context.Background(), model.CompanyIdentity{FullName: "Acme"})
	if result.Status != StatusLookupError {
		t.Fatalf("expected lookup_error, got %s", result.Status)
	}
}

func TestOfflineMatcher_SnapshotCached(t *testing.T) {
	path := writeSnapshot(t, testSnapshot)
	m := NewOfflineMatcher(path, cache.NewMemoryCache(time.Minute, time.Minute))

	first := m.Match(context.Background(), model.CompanyIdentity{FullName: "현대자동차"})
	if first.Status != StatusFound {
		t.Fatalf("expected found, got %s", first.Status)
	}

	// Remove the file; the cached snapshot must still serve
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove snapshot: %v", err)
	}
	second := m.Match(context.Background(), model.CompanyIdentity{FullName: "현대자동차"})
	if second.Status != StatusFound {
		t.Errorf("expected cached snapshot to serve, got %s", second.Status)
	}
}
