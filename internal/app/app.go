// Package app wires a deck-building session from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/tcgdeck/internal/builder"
	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/config"
	"github.com/peterkuimelis/tcgdeck/internal/log"
	"github.com/peterkuimelis/tcgdeck/internal/logging"
	"github.com/peterkuimelis/tcgdeck/internal/sets"
	"github.com/peterkuimelis/tcgdeck/internal/store"
)

// App is a running session and the resources it owns.
type App struct {
	Config  *config.Config
	Builder *builder.Builder
	store   store.Store
}

// Open loads configuration from path (may be empty), initializes logging and
// builds the session. Deck events go to events, which may be nil.
func Open(ctx context.Context, path string, events log.EventLogger) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.LoggingSetup())
	return New(ctx, cfg, events)
}

// New builds the session for an already loaded configuration.
func New(ctx context.Context, cfg *config.Config, events log.EventLogger) (*App, error) {
	st, err := store.Open(cfg.StoreBackend())
	if err != nil {
		return nil, fmt.Errorf("open deck store: %w", err)
	}

	client := catalog.New(cfg.CatalogClient())
	b := builder.New(ctx, builder.Deps{
		Catalog: client,
		Sets:    sets.NewDirectory(client),
		Store:   st,
		Events:  events,
		Search:  cfg.SearchEngine(),
	})

	logging.Info().
		Str("catalog", cfg.Catalog.BaseURL).
		Str("store", cfg.Store.Backend).
		Int("deck_cards", b.Deck().Total()).
		Msg("deck builder ready")

	return &App{Config: cfg, Builder: b, store: st}, nil
}

// Close releases the deck store.
func (a *App) Close() error {
	return a.store.Close()
}
