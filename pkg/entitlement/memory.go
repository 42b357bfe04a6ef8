package entitlement

import (
	"context"
	"sync"
	"time"
)

// MemoryStore はプロセス内メモリに保持するRepository実装。テストと開発用。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Entitlement
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Entitlement)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (s *MemoryStore) Put(_ context.Context, e Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.data[e.UserID] = e
	return nil
}

func (s *MemoryStore) Revoke(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[userID]
	if !ok {
		return ErrNotFound
	}
	e.RevokedAt = &at
	s.data[userID] = e
	return nil
}

func (s *MemoryStore) PruneExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.data {
		if e.ExpiresAt.Before(before) || (e.RevokedAt != nil && e.RevokedAt.Before(before)) {
			delete(s.data, k)
			n++
		}
	}
	return n, nil
}
