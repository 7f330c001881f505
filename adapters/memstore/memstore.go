// Package memstore keeps run manifests and score tables in process memory.
// It backs the CLI, tests, and any deployment that does not configure
// Postgres, with the same append-only contract as the durable store.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"regact/domain/analysis"
	"regact/domain/core"
	"regact/domain/score"
)

// Store implements ports.ResultStorePort with in-memory maps.
type Store struct {
	mu        sync.RWMutex
	manifests map[core.RunID]*analysis.RunManifest
	results   map[core.RunID]score.Table
	order     []core.RunID
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		manifests: make(map[core.RunID]*analysis.RunManifest),
		results:   make(map[core.RunID]score.Table),
	}
}

// SaveRun stores a manifest with its scores. Runs are immutable once
// written: a second save under the same run id fails.
func (s *Store) SaveRun(ctx context.Context, manifest *analysis.RunManifest, results score.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if manifest == nil {
		return core.NewValidationError("manifest", "manifest must not be nil")
	}
	if err := manifest.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.manifests[manifest.RunID]; exists {
		return core.NewValidationError("run_id",
			fmt.Sprintf("run %s already stored", manifest.RunID))
	}

	kept := *manifest
	s.manifests[manifest.RunID] = &kept
	s.results[manifest.RunID] = append(score.Table(nil), results...)
	s.order = append(s.order, manifest.RunID)
	return nil
}

// GetRun returns the manifest for one run.
func (s *Store) GetRun(ctx context.Context, runID core.RunID) (*analysis.RunManifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	manifest, ok := s.manifests[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	out := *manifest
	return &out, nil
}

// GetResults returns the score table for one run.
func (s *Store) GetResults(ctx context.Context, runID core.RunID) (score.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	results, ok := s.results[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	return append(score.Table(nil), results...), nil
}

// ListRuns returns manifests newest first. A non-positive limit returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*analysis.RunManifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*analysis.RunManifest, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		manifest := *s.manifests[s.order[i]]
		out = append(out, &manifest)
	}
	return out, nil
}

// Len reports the number of stored runs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
