package memory

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a Store kept in process memory. Records do not survive
// a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Load(ctx context.Context, projectID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[projectID]
	if !ok {
		return nil, ErrNoTranscript
	}
	return &rec, nil
}

func (s *MemoryStore) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[rec.ProjectID]; ok {
		rec.UserID = existing.UserID
	}
	rec.UpdatedAt = time.Now().UTC()
	s.records[rec.ProjectID] = rec
	return nil
}

var _ Store = (*MemoryStore)(nil)
