package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/catalog/catalogtest"
	"github.com/peterkuimelis/tcgdeck/internal/config"
	"github.com/peterkuimelis/tcgdeck/internal/log"
)

func TestNewRestoresSavedDeck(t *testing.T) {
	cat := catalogtest.NewServer(t)
	cat.AddSets(catalog.Set{ID: "sv1", Name: "Scarlet & Violet", Code: "SVI"})
	cat.AddCards(catalogtest.Trainer("sv1-189", "Professor's Research", "sv1", "189"))

	cfg := config.Default()
	cfg.Catalog.BaseURL = cat.URL
	cfg.Store.Path = t.TempDir()
	ctx := context.Background()

	a, err := New(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = a.Builder.Add(ctx, "sv1-189")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	events := log.NewMemoryLogger()
	a, err = New(ctx, cfg, events)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, 1, a.Builder.Deck().Count("sv1-189"))
	assert.Len(t, events.EventsOfType(log.EventDeckRestored), 1)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "redis"
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}
