// Package memory holds in-process implementations of the storage interfaces,
// used when no Redis is configured and throughout the tests.
package memory

import (
	"context"
	"sync"

	"quizrunner/internal/domain"
)

// ScoreStore is an in-memory implementation of stats.ScoreStore.
type ScoreStore struct {
	mu      sync.RWMutex
	entries map[string]domain.ScoreEntry
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{entries: make(map[string]domain.ScoreEntry)}
}

func (s *ScoreStore) Get(_ context.Context, quizKey string) (domain.ScoreEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[quizKey]
	return entry, ok, nil
}

func (s *ScoreStore) Put(_ context.Context, quizKey string, entry domain.ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[quizKey] = entry
	return nil
}

func (s *ScoreStore) All(_ context.Context) (map[string]domain.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.ScoreEntry, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out, nil
}
