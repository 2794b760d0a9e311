package store

import (
	"context"
	"sync"

	"github.com/peterkuimelis/tcgdeck/internal/deck"
)

// MemoryStore keeps the deck in memory.
type MemoryStore struct {
	mu    sync.Mutex
	deck  deck.Deck
	saves int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (deck.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deck == nil {
		return nil, ErrNotFound
	}
	return s.deck.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, d deck.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deck = d.Clone()
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *MemoryStore) Close() error { return nil }
