package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/catalog/catalogtest"
	"github.com/peterkuimelis/tcgdeck/internal/deck"
)

func sampleDeck() deck.Deck {
	pika := catalogtest.Pokemon("sv1-1", "Pikachu", "sv1", "1", "Thunder Shock")
	pika.Set.Code = "SVI"
	pika.Types = []string{"Lightning"}
	pika.Legalities = map[string]string{"standard": "Legal"}
	fire := catalogtest.Energy("sve-2", "Fire Energy", "sve", "2")
	return deck.Deck{
		pika.ID: {Card: pika, Count: 3},
		fire.ID: {Card: fire, Count: 12},
	}
}

func TestBackendsRoundTrip(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"badger": func(t *testing.T) Store {
			s, err := OpenBadger("")
			require.NoError(t, err)
			return s
		},
		"badger on disk": func(t *testing.T) Store {
			s, err := Open(Config{Backend: BackendBadger, Path: t.TempDir()})
			require.NoError(t, err)
			return s
		},
		"file": func(t *testing.T) Store {
			return NewFileStore(filepath.Join(t.TempDir(), "deck.yaml"))
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()
			ctx := context.Background()

			_, err := s.Load(ctx)
			assert.ErrorIs(t, err, ErrNotFound)

			want := sampleDeck()
			require.NoError(t, s.Save(ctx, want))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			want = want.Remove("sv1-1")
			require.NoError(t, s.Save(ctx, want))
			got, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, got.Count("sv1-1"))
			assert.Equal(t, catalog.SupertypePokemon, got["sv1-1"].Card.Supertype)

			require.NoError(t, s.Save(ctx, deck.Deck{}))
			got, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestFileStoreKeepsOtherDecks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`decks:
  - name: charizard
    cards:
      - card:
          id: sv3-125
          name: Charizard ex
          supertype: Pokémon
          set:
            id: sv3
          number: "125"
        count: 3
`), 0o644))

	s := NewFileStore(path)
	ctx := context.Background()
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, sampleDeck()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: charizard")
	assert.Contains(t, string(data), "name: "+Key)
}

func TestFileStoreMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("decks: [this is: not valid"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileStoreSaveReplacesMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("decks: [::: not yaml"), 0o644))

	s := NewFileStore(path)
	ctx := context.Background()
	_, err := s.Load(ctx)
	require.Error(t, err)

	pika := catalogtest.Pokemon("sv1-1", "Pikachu", "sv1", "1", "Thunder Shock")
	require.NoError(t, s.Save(ctx, deck.Deck{pika.ID: {Card: pika, Count: 1}}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count("sv1-1"))

	bad, err := os.ReadFile(path + ".bad")
	require.NoError(t, err)
	assert.Equal(t, "decks: [::: not yaml", string(bad))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(Config{Backend: "redis"})
	assert.Error(t, err)
}
