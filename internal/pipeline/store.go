package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dkhwang/memoir/internal/model"
)

// ErrRunInProgress means a run for the same (url, jurisdiction) key is
// already underway. Callers wait and retry; they never start a second run.
var ErrRunInProgress = errors.New("a run for this url and jurisdiction is already in progress")

// Store holds finished report artifacts for the session, keyed by
// (url, jurisdiction). Artifacts are append-only: a stored report is never
// regenerated or mutated, only removed on explicit request.
type Store struct {
	mu         sync.Mutex
	artifacts  map[model.ArtifactKey]*model.ReportArtifact
	order      []model.ArtifactKey
	inProgress map[model.ArtifactKey]bool
}

// NewStore creates an empty artifact store
func NewStore() *Store {
	return &Store{
		artifacts:  make(map[model.ArtifactKey]*model.ReportArtifact),
		inProgress: make(map[model.ArtifactKey]bool),
	}
}

// Begin claims the key for a new run. If an artifact already exists it is
// returned as-is with a nil release func (idempotent replay). If a run for
// the key is underway, ErrRunInProgress. Otherwise the key is locked and
// the caller must invoke release when the run ends, success or not.
func (s *Store) Begin(key model.ArtifactKey) (*model.ReportArtifact, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if artifact, ok := s.artifacts[key]; ok {
		return artifact, nil, nil
	}
	if s.inProgress[key] {
		return nil, nil, ErrRunInProgress
	}

	s.inProgress[key] = true
	release := func() {
		s.mu.Lock()
		delete(s.inProgress, key)
		s.mu.Unlock()
	}
	return nil, release, nil
}

// Append stores a finished artifact. Storing a second artifact under an
// occupied key is a programming error and is refused.
func (s *Store) Append(artifact *model.ReportArtifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := artifact.Key()
	if _, ok := s.artifacts[key]; ok {
		return fmt.Errorf("artifact already exists for %s (%s)", key.URL, key.Jurisdiction)
	}
	s.artifacts[key] = artifact
	s.order = append(s.order, key)
	return nil
}

// Find returns the stored artifact for the key, or nil.
func (s *Store) Find(key model.ArtifactKey) *model.ReportArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifacts[key]
}

// Remove deletes the artifact for the key, reporting whether one existed.
func (s *Store) Remove(key model.ArtifactKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.artifacts[key]; !ok {
		return false
	}
	delete(s.artifacts, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns the stored artifacts in insertion order.
func (s *Store) List() []*model.ReportArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.ReportArtifact, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.artifacts[key])
	}
	return out
}
