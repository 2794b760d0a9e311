// Package builder is the deck-building session: it owns the current deck,
// the search engine and persistence, and records deck activity.
package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/deck"
	"github.com/peterkuimelis/tcgdeck/internal/log"
	"github.com/peterkuimelis/tcgdeck/internal/logging"
	"github.com/peterkuimelis/tcgdeck/internal/metrics"
	"github.com/peterkuimelis/tcgdeck/internal/query"
	"github.com/peterkuimelis/tcgdeck/internal/search"
	"github.com/peterkuimelis/tcgdeck/internal/sets"
	"github.com/peterkuimelis/tcgdeck/internal/store"
)

// Catalog is the part of the catalog client the builder uses.
type Catalog interface {
	SearchCards(ctx context.Context, q string, page, pageSize int) ([]catalog.Card, error)
	Card(ctx context.Context, id string) (catalog.Card, error)
}

// Deps wires a Builder. Catalog and Sets are required.
type Deps struct {
	Catalog Catalog
	Sets    *sets.Directory
	Store   store.Store
	Events  log.EventLogger
	Search  search.Config
}

// Builder is safe for concurrent use. Deck mutations are serialized and
// replace the deck value as a whole.
type Builder struct {
	cards  Catalog
	sets   *sets.Directory
	engine *search.Engine
	store  store.Store
	events log.EventLogger

	mu   sync.Mutex
	deck deck.Deck
}

// New creates a Builder and restores the saved deck. A missing or unreadable
// saved deck starts an empty one.
func New(ctx context.Context, deps Deps) *Builder {
	if deps.Events == nil {
		deps.Events = log.NewMemoryLogger()
	}
	if deps.Store == nil {
		deps.Store = store.NewMemoryStore()
	}

	b := &Builder{
		cards:  deps.Catalog,
		sets:   deps.Sets,
		engine: search.New(deps.Catalog, deps.Sets, deps.Search),
		store:  deps.Store,
		events: deps.Events,
		deck:   deck.Deck{},
	}

	d, err := deps.Store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		logging.Debug().Msg("no saved deck, starting empty")
	case err != nil:
		logging.Warn().Err(err).Msg("saved deck unreadable, starting empty")
	default:
		b.deck = d
		b.events.Log(log.NewDeckRestoredEvent(len(d), d.Total()))
	}
	return b
}

// Events returns the activity log.
func (b *Builder) Events() log.EventLogger {
	return b.events
}

// Sets lists the catalog's sets, newest first.
func (b *Builder) Sets(ctx context.Context) ([]catalog.Set, error) {
	return b.sets.Sets(ctx)
}

// --- Search ---

// Search runs a search with the given term and filters.
func (b *Builder) Search(ctx context.Context, term string, f query.Filters) (search.State, error) {
	st, err := b.engine.Search(ctx, term, f)
	switch {
	case errors.Is(err, search.ErrSuperseded):
	case err != nil:
		b.events.Log(log.NewSearchFailedEvent(st.Query, err))
	case st.Query != "":
		b.events.Log(log.NewSearchCompletedEvent(st.Query, st.Total))
	}
	return st, err
}

// LoadMore reveals the next page of results.
func (b *Builder) LoadMore() search.State {
	return b.engine.LoadMore()
}

// ResetSearch clears the search results.
func (b *Builder) ResetSearch() {
	b.engine.Reset()
}

// SearchState returns the current search state.
func (b *Builder) SearchState() search.State {
	return b.engine.State()
}

// Subscribe streams search state changes.
func (b *Builder) Subscribe() (<-chan search.State, func()) {
	return b.engine.Subscribe()
}

// Direction selects an evolution link.
type Direction string

const (
	EvolvesFrom Direction = "from"
	EvolvesTo   Direction = "to"
)

// ErrNoEvolution is returned when the card has no link in the requested
// direction.
var ErrNoEvolution = errors.New("card has no evolution in that direction")

// Evolutions searches for the card c evolves from or into, keeping the
// current filters.
func (b *Builder) Evolutions(ctx context.Context, c catalog.Card, dir Direction) (search.State, error) {
	var name string
	switch dir {
	case EvolvesFrom:
		name = c.EvolvesFrom
	case EvolvesTo:
		if len(c.EvolvesTo) > 0 {
			name = c.EvolvesTo[0]
		}
	default:
		return search.State{}, fmt.Errorf("unknown evolution direction %q", dir)
	}
	if name == "" {
		return search.State{}, fmt.Errorf("%s: %w", c.Name, ErrNoEvolution)
	}
	return b.Search(ctx, name, b.engine.State().Filters)
}

// --- Deck ---

// Deck returns the current deck. The value must not be modified.
func (b *Builder) Deck() deck.Deck {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deck
}

// Summary returns the current deck's summary.
func (b *Builder) Summary() deck.Summary {
	return b.Deck().Summary()
}

// AddCard adds one copy of c. It fails with deck.ErrLimitReached when the
// copy limit forbids it.
func (b *Builder) AddCard(ctx context.Context, c catalog.Card) (deck.Deck, error) {
	c = b.sets.Enrich(ctx, c)

	b.mu.Lock()
	defer b.mu.Unlock()

	next, ok := b.deck.Add(c)
	if !ok {
		metrics.DeckMutations.WithLabelValues("add", "rejected").Inc()
		b.events.Log(log.NewAddRejectedEvent(c.ID, c.Name, deck.Copies(b.deck, c), b.deck.Total()))
		return b.deck, fmt.Errorf("add %s: %w", c.Name, deck.ErrLimitReached)
	}
	metrics.DeckMutations.WithLabelValues("add", "ok").Inc()
	b.deck = next
	b.events.Log(log.NewCardAddedEvent(c.ID, c.Name, next.Count(c.ID), next.Total()))
	return next, b.persistLocked(ctx)
}

// Card returns the card with the given id, from the deck when it holds a
// copy and from the catalog otherwise.
func (b *Builder) Card(ctx context.Context, cardID string) (catalog.Card, error) {
	b.mu.Lock()
	e, inDeck := b.deck[cardID]
	b.mu.Unlock()
	if inDeck {
		return e.Card, nil
	}

	c, err := b.cards.Card(ctx, cardID)
	if err != nil {
		return catalog.Card{}, err
	}
	return b.sets.Enrich(ctx, c), nil
}

// Add fetches the card with the given id and adds one copy of it.
func (b *Builder) Add(ctx context.Context, cardID string) (deck.Deck, error) {
	c, err := b.Card(ctx, cardID)
	if err != nil {
		return b.Deck(), err
	}
	return b.AddCard(ctx, c)
}

// Remove removes one copy of the card with the given id. Unknown ids are
// ignored.
func (b *Builder) Remove(ctx context.Context, cardID string) (deck.Deck, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.deck[cardID]
	if !ok {
		metrics.DeckMutations.WithLabelValues("remove", "noop").Inc()
		return b.deck, nil
	}
	b.deck = b.deck.Remove(cardID)
	metrics.DeckMutations.WithLabelValues("remove", "ok").Inc()
	b.events.Log(log.NewCardRemovedEvent(cardID, e.Card.Name, b.deck.Count(cardID), b.deck.Total()))
	return b.deck, b.persistLocked(ctx)
}

// Clear empties the deck.
func (b *Builder) Clear(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deck = deck.Deck{}
	metrics.DeckMutations.WithLabelValues("clear", "ok").Inc()
	b.events.Log(log.NewDeckClearedEvent())
	return b.persistLocked(ctx)
}

// Import replaces the deck with the one described by a deck list. The
// current deck is left untouched when the catalog cannot be reached.
func (b *Builder) Import(ctx context.Context, text string) (deck.ImportResult, error) {
	res, err := deck.Import(ctx, text, deck.Resolver{Sets: b.sets, Cards: b.cards})
	if err != nil {
		metrics.DeckMutations.WithLabelValues("import", "failed").Inc()
		return res, err
	}
	for id, e := range res.Deck {
		e.Card = b.sets.Enrich(ctx, e.Card)
		res.Deck[id] = e
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.deck = res.Deck
	metrics.DeckMutations.WithLabelValues("import", "ok").Inc()
	for _, d := range res.Diagnostics {
		b.events.Log(log.NewImportSkippedEvent(d.Line, d.Text, d.Reason))
	}
	b.events.Log(log.NewDeckImportedEvent(res.Resolved, res.Parsed, res.Parsed-res.Resolved, res.Deck.Total()))
	return res, b.persistLocked(ctx)
}

// Export renders the current deck as a deck list.
func (b *Builder) Export(ctx context.Context) string {
	d := b.Deck()
	text := deck.Export(ctx, d, b.sets)
	b.events.Log(log.NewDeckExportedEvent(len(d), d.Total()))
	return text
}

func (b *Builder) persistLocked(ctx context.Context) error {
	if err := b.store.Save(ctx, b.deck); err != nil {
		logging.Warn().Err(err).Msg("saving deck failed")
		return fmt.Errorf("save deck: %w", err)
	}
	return nil
}
