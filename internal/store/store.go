// Package store persists the deck between runs.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/peterkuimelis/tcgdeck/internal/deck"
)

// Key is the key the deck is stored under.
const Key = "tcgdeck/deck"

// ErrNotFound is returned by Load when no deck has been saved yet.
var ErrNotFound = errors.New("no saved deck")

// Store loads and saves the deck.
type Store interface {
	Load(ctx context.Context) (deck.Deck, error)
	Save(ctx context.Context, d deck.Deck) error
	Close() error
}

// Backend names.
const (
	BackendBadger = "badger"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Config selects and locates a backend.
type Config struct {
	Backend string
	// Path is the badger directory or the YAML file.
	Path string
}

// Open opens the configured backend.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendBadger, "":
		return OpenBadger(cfg.Path)
	case BackendFile:
		return NewFileStore(cfg.Path), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
