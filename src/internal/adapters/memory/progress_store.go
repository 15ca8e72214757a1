package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/shelfsync/shelfsync/src/internal/domain"
)

type InMemoryProgressStore struct {
	mu      sync.RWMutex
	records map[string]domain.ProgressRecord

	// FailPuts makes every Put return an error, for exercising the
	// persistence failure path.
	FailPuts bool
}

func NewProgressStore() *InMemoryProgressStore {
	return &InMemoryProgressStore{records: make(map[string]domain.ProgressRecord)}
}

func (s *InMemoryProgressStore) Get(ctx context.Context, userID, document string) (*domain.ProgressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID+"/"+document]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *InMemoryProgressStore) Put(ctx context.Context, userID, document string, rec *domain.ProgressRecord) error {
	if s.FailPuts {
		return errors.New("progress store write failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[userID+"/"+document] = *rec
	return nil
}
