package mcp

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/tcgdeck/internal/builder"
	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/catalog/catalogtest"
	"github.com/peterkuimelis/tcgdeck/internal/log"
	"github.com/peterkuimelis/tcgdeck/internal/search"
	"github.com/peterkuimelis/tcgdeck/internal/sets"
	"github.com/peterkuimelis/tcgdeck/internal/store"
)

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cat := catalogtest.NewServer(t)
	cat.AddSets(
		catalog.Set{ID: "sv1", Name: "Scarlet & Violet", Code: "SVI"},
		catalog.Set{ID: "sve", Name: "Scarlet & Violet Energies", Code: "SVE"},
	)
	charmander := catalogtest.Pokemon("sv1-4", "Charmander", "sv1", "4", "Ember")
	charmander.EvolvesTo = []string{"Charmeleon"}
	charmeleon := catalogtest.Pokemon("sv1-5", "Charmeleon", "sv1", "5", "Flare")
	charmeleon.EvolvesFrom = "Charmander"
	cat.AddCards(
		charmander,
		charmeleon,
		catalogtest.Trainer("sv1-189", "Professor's Research", "sv1", "189"),
		catalogtest.Energy("sve-2", "Fire Energy", "sve", "2"),
	)

	client := cat.Client()
	events := log.NewMemoryLogger()
	b := builder.New(context.Background(), builder.Deps{
		Catalog: client,
		Sets:    sets.NewDirectory(client),
		Store:   store.NewMemoryStore(),
		Events:  events,
		Search:  search.Config{PageSize: 10},
	})
	return NewSession(b, events)
}

func call(t *testing.T, h toolHandler, args map[string]any) (*ToolResponse, *mcp.CallToolResult) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	if res.IsError {
		return nil, res
	}
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var resp ToolResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &resp))
	return &resp, res
}

func TestSearchAndLoadMore(t *testing.T) {
	s := newTestSession(t)

	resp, _ := call(t, s.handleSearchCards, map[string]any{"name": "Char", "sort": "name-desc"})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Search)
	assert.Equal(t, 2, resp.Search.Total)
	require.Len(t, resp.Search.Results, 2)
	assert.Equal(t, "Charmeleon", resp.Search.Results[0].Name)
	assert.Equal(t, "SVI", resp.Search.Results[0].Set)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, log.EventSearchCompleted.String(), resp.Events[0].Type)

	resp, _ = call(t, s.handleLoadMore, nil)
	require.NotNil(t, resp)
	assert.Len(t, resp.Search.Results, 2)
	assert.Empty(t, resp.Events, "events are reported once")

	resp, res := call(t, s.handleSearchCards, map[string]any{"name": "Char", "sort": "random"})
	assert.Nil(t, resp)
	assert.True(t, res.IsError)
}

func TestEvolutions(t *testing.T) {
	s := newTestSession(t)

	resp, _ := call(t, s.handleEvolutions, map[string]any{"card_id": "sv1-4", "direction": "to"})
	require.NotNil(t, resp)
	require.Len(t, resp.Search.Results, 1)
	assert.Equal(t, "sv1-5", resp.Search.Results[0].ID)

	_, res := call(t, s.handleEvolutions, map[string]any{"card_id": "sv1-4", "direction": "from"})
	assert.True(t, res.IsError)
}

func TestAddRemoveAndLimit(t *testing.T) {
	s := newTestSession(t)

	resp, _ := call(t, s.handleAddCard, map[string]any{"card_id": "sv1-4", "count": 3})
	require.NotNil(t, resp)
	assert.Equal(t, 3, resp.Deck.Total)
	assert.Equal(t, 3, resp.Deck.Sections["Pokémon"])
	assert.Len(t, resp.Events, 3)

	_, res := call(t, s.handleAddCard, map[string]any{"card_id": "sv1-4", "count": 2})
	assert.True(t, res.IsError)
	assert.Equal(t, 4, s.b.Deck().Count("sv1-4"))

	_, res = call(t, s.handleAddCard, map[string]any{"card_id": "nope"})
	assert.True(t, res.IsError)

	resp, _ = call(t, s.handleRemoveCard, map[string]any{"card_id": "sv1-4"})
	require.NotNil(t, resp)
	assert.Equal(t, 3, resp.Deck.Total)

	_, res = call(t, s.handleRemoveCard, map[string]any{"card_id": "sv1-189"})
	assert.True(t, res.IsError)

	resp, _ = call(t, s.handleClearDeck, nil)
	require.NotNil(t, resp)
	assert.Zero(t, resp.Deck.Total)
	assert.Empty(t, resp.Deck.Entries)
}

func TestImportExport(t *testing.T) {
	s := newTestSession(t)

	resp, _ := call(t, s.handleImportDeck, map[string]any{
		"list": "Pokémon: 1\n2 Charmander SVI 4\n\nEnergy: 2\n10 Fire Energy SVE 2\n1 Pikachu PRC 9",
	})
	require.NotNil(t, resp)
	assert.Equal(t, 12, resp.Deck.Total)
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, 6, resp.Diagnostics[0].Line)

	resp, _ = call(t, s.handleExportDeck, nil)
	require.NotNil(t, resp)
	assert.Equal(t, "Pokémon: 1\n2 Charmander SVI 4\n\nTrainer: 0\n\n\nEnergy: 1\n10 Fire Energy SVE 2\n\nTotal Cards: 12", resp.List)

	_, res := call(t, s.handleImportDeck, map[string]any{"list": "  "})
	assert.True(t, res.IsError)
}

func TestListSets(t *testing.T) {
	s := newTestSession(t)
	resp, _ := call(t, s.handleListSets, nil)
	require.NotNil(t, resp)
	assert.Len(t, resp.Sets, 2)
}
