package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/peterkuimelis/tcgdeck/internal/deck"
	"github.com/peterkuimelis/tcgdeck/internal/logging"
)

var errMalformed = errors.New("parse deck YAML")

// DeckFile is the top-level YAML structure of the file backend.
type DeckFile struct {
	Decks []DeckEntry `yaml:"decks"`
}

// DeckEntry is one named deck in the file.
type DeckEntry struct {
	Name  string       `yaml:"name"`
	Cards []deck.Entry `yaml:"cards"`
}

// FileStore keeps the deck in a YAML file that can be read and edited by
// hand. Other decks in the file are preserved on save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store for the YAML file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) read() (DeckFile, error) {
	var df DeckFile
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return df, ErrNotFound
	}
	if err != nil {
		return df, err
	}
	if err := yaml.Unmarshal(data, &df); err != nil {
		return df, fmt.Errorf("%w: %w", errMalformed, err)
	}
	return df, nil
}

// Load reads the deck stored under Key.
func (s *FileStore) Load(ctx context.Context) (deck.Deck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	df, err := s.read()
	if err != nil {
		return nil, err
	}
	for _, entry := range df.Decks {
		if entry.Name != Key {
			continue
		}
		d := make(deck.Deck, len(entry.Cards))
		for _, e := range entry.Cards {
			if e.Card.ID == "" || e.Count < 1 {
				continue
			}
			d[e.Card.ID] = e
		}
		return d, nil
	}
	return nil, ErrNotFound
}

// Save writes the deck under Key, replacing the file atomically. A file that
// does not parse is moved aside to path+".bad" and replaced.
func (s *FileStore) Save(ctx context.Context, d deck.Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	df, err := s.read()
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
	case errors.Is(err, errMalformed):
		bad := s.path + ".bad"
		logging.Warn().Err(err).Str("path", s.path).Str("backup", bad).Msg("deck file unreadable, replacing it")
		if rerr := os.Rename(s.path, bad); rerr != nil {
			return fmt.Errorf("back up unreadable deck file: %w", rerr)
		}
		df = DeckFile{}
	default:
		return err
	}

	entry := DeckEntry{Name: Key, Cards: d.Entries()}
	replaced := false
	for i := range df.Decks {
		if df.Decks[i].Name == Key {
			df.Decks[i] = entry
			replaced = true
		}
	}
	if !replaced {
		df.Decks = append(df.Decks, entry)
	}

	data, err := yaml.Marshal(&df)
	if err != nil {
		return fmt.Errorf("encode deck YAML: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
