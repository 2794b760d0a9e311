package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/peterkuimelis/tcgdeck/internal/deck"
)

// BadgerStore keeps the deck as a JSON value in a badger database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens the database at dir. An empty dir opens an in-memory
// database.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Load reads the saved deck.
func (s *BadgerStore) Load(ctx context.Context) (deck.Deck, error) {
	var d deck.Deck
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get deck: %w", err)
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &d); err != nil {
				return fmt.Errorf("decode deck: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = deck.Deck{}
	}
	return d, nil
}

// Save replaces the saved deck.
func (s *BadgerStore) Save(ctx context.Context, d deck.Deck) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode deck: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(Key), data)
	})
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
