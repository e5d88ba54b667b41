package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/dkhwang/memoir/internal/model"
)

func testArtifact(url string, j model.Jurisdiction) *model.ReportArtifact {
	return &model.ReportArtifact{
		RequestURL:   url,
		Jurisdiction: j,
		Body:         "report",
		GeneratedAt:  time.Now().UTC(),
	}
}

func TestStore_BeginAppendFind(t *testing.T) {
	s := NewStore()
	key := model.ArtifactKey{URL: "https://example.com", Jurisdiction: model.JurisdictionGlobal}

	cached, release, err := s.Begin(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached != nil {
		t.Fatal("empty store must not return an artifact")
	}

	artifact := testArtifact("https://example.com", model.JurisdictionGlobal)
	if err := s.Append(artifact); err != nil {
		t.Fatalf("append: %v", err)
	}
	release()

	if got := s.Find(key); got != artifact {
		t.Error("Find should return the stored artifact")
	}

	// Begin on an occupied key replays the artifact
	cached, _, err = s.Begin(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached != artifact {
		t.Error("Begin should replay the stored artifact")
	}
}

func TestStore_InProgressGuard(t *testing.T) {
	s := NewStore()
	key := model.ArtifactKey{URL: "https://example.com", Jurisdiction: model.JurisdictionGlobal}

	_, release, err := s.Begin(key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := s.Begin(key); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("expected ErrRunInProgress, got %v", err)
	}

	// A different jurisdiction is a different key
	other := model.ArtifactKey{URL: "https://example.com", Jurisdiction: model.JurisdictionKorea}
	if _, otherRelease, err := s.Begin(other); err != nil {
		t.Errorf("other key must not be locked: %v", err)
	} else {
		otherRelease()
	}

	// Release without Append frees the key for a retry
	release()
	if _, release2, err := s.Begin(key); err != nil {
		t.Errorf("released key must be claimable again: %v", err)
	} else {
		release2()
	}
}

func TestStore_AppendDuplicate(t *testing.T) {
	s := NewStore()
	a := testArtifact("https://example.com", model.JurisdictionGlobal)
	if err := s.Append(a); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(testArtifact("https://example.com", model.JurisdictionGlobal)); err == nil {
		t.Error("expected error for duplicate key")
	}
}

func TestStore_RemoveAndList(t *testing.T) {
	s := NewStore()
	first := testArtifact("https://a.example", model.JurisdictionGlobal)
	second := testArtifact("https://b.example", model.JurisdictionKorea)
	_ = s.Append(first)
	_ = s.Append(second)

	list := s.List()
	if len(list) != 2 || list[0] != first || list[1] != second {
		t.Fatalf("expected insertion order [first second], got %v", list)
	}

	if !s.Remove(first.Key()) {
		t.Error("Remove should report an existing artifact")
	}
	if s.Remove(first.Key()) {
		t.Error("second Remove should report a miss")
	}

	list = s.List()
	if len(list) != 1 || list[0] != second {
		t.Errorf("expected only second artifact, got %v", list)
	}

	// Removed key can be regenerated
	if cached, release, err := s.Begin(first.Key()); err != nil || cached != nil {
		t.Errorf("removed key should be free: cached=%v err=%v", cached, err)
	} else {
		release()
	}
}
