package storage

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	updatedAt time.Time
}

// MemoryStorage keeps per-chat values in process memory.
type MemoryStorage[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]entry[T]
}

func NewMemoryStorage[T any]() *MemoryStorage[T] {
	return &MemoryStorage[T]{
		sessions: make(map[int64]entry[T]),
	}
}

func (s *MemoryStorage[T]) Get(chatID int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.sessions[chatID]
	return e.value, exists
}

func (s *MemoryStorage[T]) Save(chatID int64, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[chatID] = entry[T]{value: value, updatedAt: time.Now()}
}

func (s *MemoryStorage[T]) Delete(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, chatID)
}

// Prune drops sessions untouched for longer than maxAge and reports how many went.
func (s *MemoryStorage[T]) Prune(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, e := range s.sessions {
		if e.updatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
