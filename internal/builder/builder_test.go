package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/catalog/catalogtest"
	"github.com/peterkuimelis/tcgdeck/internal/deck"
	"github.com/peterkuimelis/tcgdeck/internal/log"
	"github.com/peterkuimelis/tcgdeck/internal/query"
	"github.com/peterkuimelis/tcgdeck/internal/search"
	"github.com/peterkuimelis/tcgdeck/internal/sets"
	"github.com/peterkuimelis/tcgdeck/internal/store"
)

type fixture struct {
	srv    *catalogtest.Server
	store  *store.MemoryStore
	events *log.MemoryLogger
	b      *Builder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := catalogtest.NewServer(t)
	srv.AddSets(
		catalog.Set{ID: "sv1", Name: "Scarlet & Violet", Code: "SVI"},
		catalog.Set{ID: "sve", Name: "Scarlet & Violet Energies", Code: "SVE"},
	)

	charmander := catalogtest.Pokemon("sv1-4", "Charmander", "sv1", "4", "Ember")
	charmander.EvolvesTo = []string{"Charmeleon"}
	charmeleon := catalogtest.Pokemon("sv1-5", "Charmeleon", "sv1", "5", "Flare")
	charmeleon.Subtypes = []string{"Stage 1"}
	charmeleon.EvolvesFrom = "Charmander"
	srv.AddCards(
		charmander,
		charmeleon,
		catalogtest.Trainer("sv1-189", "Professor's Research", "sv1", "189"),
		catalogtest.Energy("sve-2", "Fire Energy", "sve", "2"),
	)

	return newFixtureWithStore(t, srv, store.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, srv *catalogtest.Server, st *store.MemoryStore) *fixture {
	t.Helper()
	client := srv.Client()
	events := log.NewMemoryLogger()
	b := New(context.Background(), Deps{
		Catalog: client,
		Sets:    sets.NewDirectory(client),
		Store:   st,
		Events:  events,
		Search:  search.Config{PageSize: 10},
	})
	return &fixture{srv: srv, store: st, events: events, b: b}
}

func TestAddPersistsAndLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.b.Add(ctx, "sv1-189")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Count("sv1-189"))
	assert.Equal(t, "SVI", d["sv1-189"].Card.Set.Code, "set code enriched")

	saved, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Count("sv1-189"))
	assert.Len(t, f.events.EventsOfType(log.EventCardAdded), 1)
}

func TestFifthCopyRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := f.b.Add(ctx, "sv1-189")
		require.NoError(t, err)
	}
	saves := f.store.Saves()

	d, err := f.b.Add(ctx, "sv1-189")
	assert.ErrorIs(t, err, deck.ErrLimitReached)
	assert.Equal(t, 4, d.Count("sv1-189"))
	assert.Equal(t, saves, f.store.Saves(), "rejected add is not persisted")
	assert.Len(t, f.events.EventsOfType(log.EventAddRejected), 1)
	assert.Equal(t, 1, f.srv.Requests("card"), "later adds reuse the deck's copy")
}

func TestAddUnknownCard(t *testing.T) {
	f := newFixture(t)
	_, err := f.b.Add(context.Background(), "nope-1")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Empty(t, f.b.Deck())
}

func TestRemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.b.Add(ctx, "sve-2")
	require.NoError(t, err)
	_, err = f.b.Add(ctx, "sv1-4")
	require.NoError(t, err)

	d, err := f.b.Remove(ctx, "sve-2")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Total())

	d, err = f.b.Remove(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Total())

	require.NoError(t, f.b.Clear(ctx))
	assert.Empty(t, f.b.Deck())
	saved, err := f.store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestRestoreOnStartup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.b.Add(ctx, "sv1-4")
	require.NoError(t, err)

	again := newFixtureWithStore(t, f.srv, f.store)
	assert.Equal(t, 1, again.b.Deck().Count("sv1-4"))
	assert.Len(t, again.events.EventsOfType(log.EventDeckRestored), 1)
}

type brokenStore struct{ store.MemoryStore }

func (s *brokenStore) Load(ctx context.Context) (deck.Deck, error) {
	return nil, errors.New("decode deck: unexpected end of JSON input")
}

func TestUnreadableSavedDeckStartsEmpty(t *testing.T) {
	srv := catalogtest.NewServer(t)
	client := srv.Client()
	b := New(context.Background(), Deps{
		Catalog: client,
		Sets:    sets.NewDirectory(client),
		Store:   &brokenStore{},
	})
	assert.Empty(t, b.Deck())
}

func TestImportReplacesDeck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.b.Add(ctx, "sv1-4")
	require.NoError(t, err)

	text := "Trainer: 1\n4 Professor's Research SVI 189\n4 Boost Energy PRC 122\n\nEnergy: 1\n8 Fire Energy SVE 2\n\nTotal Cards: 16"
	res, err := f.b.Import(ctx, text)
	require.NoError(t, err)
	assert.Len(t, res.Diagnostics, 1)

	d := f.b.Deck()
	assert.Equal(t, 12, d.Total())
	assert.Zero(t, d.Count("sv1-4"), "previous deck replaced")
	assert.Equal(t, "SVE", d["sve-2"].Card.Set.Code)

	assert.Len(t, f.events.EventsOfType(log.EventImportSkipped), 1)
	assert.Len(t, f.events.EventsOfType(log.EventDeckImported), 1)
}

func TestImportFailureKeepsDeck(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.b.Add(ctx, "sv1-4")
	require.NoError(t, err)

	f.srv.SetFailing(true)
	_, err = f.b.Import(ctx, "4 Professor's Research SVI 189\n")
	assert.ErrorIs(t, err, catalog.ErrUnavailable)
	assert.Equal(t, 1, f.b.Deck().Count("sv1-4"))
}

func TestExportRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"sv1-4", "sv1-4", "sv1-189", "sve-2", "sve-2", "sve-2"} {
		_, err := f.b.Add(ctx, id)
		require.NoError(t, err)
	}

	text := f.b.Export(ctx)
	assert.Equal(t, "Pokémon: 1\n2 Charmander SVI 4\n\nTrainer: 1\n1 Professor's Research SVI 189\n\nEnergy: 1\n3 Fire Energy SVE 2\n\nTotal Cards: 6", text)

	require.NoError(t, f.b.Clear(ctx))
	_, err := f.b.Import(ctx, text)
	require.NoError(t, err)
	assert.Equal(t, 6, f.b.Deck().Total())
	assert.Equal(t, 2, f.b.Deck().Count("sv1-4"))
}

func TestSearchLogsEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.b.Search(ctx, "Char", query.Filters{CardType: "Pokémon"})
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Len(t, f.events.EventsOfType(log.EventSearchCompleted), 1)

	f.srv.SetFailing(true)
	_, err = f.b.Search(ctx, "Squirtle", query.Filters{})
	assert.Error(t, err)
	assert.Len(t, f.events.EventsOfType(log.EventSearchFailed), 1)
}

func TestEvolutions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.b.Search(ctx, "Charmander", query.Filters{CardType: "Pokémon"})
	require.NoError(t, err)
	require.Len(t, st.Results, 1)

	st, err = f.b.Evolutions(ctx, st.Results[0], EvolvesTo)
	require.NoError(t, err)
	require.Len(t, st.Results, 1)
	assert.Equal(t, "sv1-5", st.Results[0].ID)
	assert.Equal(t, "Pokémon", st.Filters.CardType, "filters kept")

	st, err = f.b.Evolutions(ctx, st.Results[0], EvolvesFrom)
	require.NoError(t, err)
	assert.Equal(t, "sv1-4", st.Results[0].ID)

	_, err = f.b.Evolutions(ctx, st.Results[0], EvolvesFrom)
	assert.ErrorIs(t, err, ErrNoEvolution)
}
