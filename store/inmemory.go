package store

import (
	"context"
	"sync"

	"github.com/seb7887/gofw/backoff"
)

var _ Store = (*InMemory)(nil)

// InMemory keeps snapshots in a map. Useful for tests and single-process deployments.
type InMemory struct {
	data map[string]backoff.Snapshot
	mu   sync.RWMutex
}

func NewInMemory() *InMemory {
	return &InMemory{
		data: make(map[string]backoff.Snapshot),
	}
}

func (s *InMemory) Save(_ context.Context, session string, snap backoff.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[session] = snap
	return nil
}

func (s *InMemory) Load(_ context.Context, session string) (backoff.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, exists := s.data[session]
	if !exists {
		return backoff.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (s *InMemory) Delete(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, session)
	return nil
}

// Len returns the number of stored snapshots.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
