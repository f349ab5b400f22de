package token

import (
	"context"
	"fmt"
	"sync"

	"github.com/hivedesk/api/internal/domain"
)

// MemoryStore is the in-process access-token store. Suitable for a single
// instance or development; multi-instance deployments must use the shared
// DynamoDB backend or the signed issuer instead.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Token] = rec
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[token]
	if !ok {
		return Record{}, fmt.Errorf("access token not found: %w", domain.ErrNotFound)
	}
	return rec, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, token)
	return nil
}
