package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/tcgdeck/internal/builder"
	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/deck"
	"github.com/peterkuimelis/tcgdeck/internal/query"
	"github.com/peterkuimelis/tcgdeck/internal/search"
)

// RegisterTools adds all deck-building tools to the MCP server.
func RegisterTools(s *server.MCPServer, sess *Session) {
	s.AddTool(searchCardsTool(), sess.handleSearchCards)
	s.AddTool(loadMoreTool(), sess.handleLoadMore)
	s.AddTool(evolutionsTool(), sess.handleEvolutions)
	s.AddTool(addCardTool(), sess.handleAddCard)
	s.AddTool(removeCardTool(), sess.handleRemoveCard)
	s.AddTool(getDeckTool(), sess.handleGetDeck)
	s.AddTool(clearDeckTool(), sess.handleClearDeck)
	s.AddTool(exportDeckTool(), sess.handleExportDeck)
	s.AddTool(importDeckTool(), sess.handleImportDeck)
	s.AddTool(listSetsTool(), sess.handleListSets)
}

// --- Tool definitions ---

func searchCardsTool() mcp.Tool {
	return mcp.NewTool("search_cards",
		mcp.WithDescription("Search the Pokémon TCG catalog by card name and filters. Returns the first page of results; "+
			"use load_more for the next page. An empty name with no filters clears the results."),
		mcp.WithString("name", mcp.Description("Card name or part of it (e.g. 'Charizard')")),
		mcp.WithString("format", mcp.Description("Legality filter"), mcp.Enum(query.Formats...)),
		mcp.WithString("card_type", mcp.Description("Supertype filter: Pokémon, Trainer or Energy")),
		mcp.WithString("subtype", mcp.Description("Subtype filter (e.g. 'Stage 1', 'Supporter', 'ex')")),
		mcp.WithString("pokemon_type", mcp.Description("Elemental type filter, applies to Pokémon only (e.g. 'Fire')")),
		mcp.WithString("sort", mcp.Description("Result order"), mcp.Enum("name-asc", "name-desc", "type")),
	)
}

func loadMoreTool() mcp.Tool {
	return mcp.NewTool("load_more",
		mcp.WithDescription("Show the next page of the current search results. Read-only, no catalog request."),
	)
}

func evolutionsTool() mcp.Tool {
	return mcp.NewTool("find_evolutions",
		mcp.WithDescription("Search for the cards a Pokémon evolves from or into."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id from a search result (e.g. 'sv1-4')")),
		mcp.WithString("direction", mcp.Required(), mcp.Description("'from' for the previous stage, 'to' for the next"), mcp.Enum("from", "to")),
	)
}

func addCardTool() mcp.Tool {
	return mcp.NewTool("add_card",
		mcp.WithDescription("Add copies of a card to the deck. At most 4 copies of a card are allowed, counted across "+
			"printings with the same name (and first attack, for Pokémon); basic Energy is unlimited."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id from a search result (e.g. 'sv1-4')")),
		mcp.WithNumber("count", mcp.Description("Copies to add, default 1")),
	)
}

func removeCardTool() mcp.Tool {
	return mcp.NewTool("remove_card",
		mcp.WithDescription("Remove one copy of a card from the deck."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id of a deck entry")),
	)
}

func getDeckTool() mcp.Tool {
	return mcp.NewTool("get_deck",
		mcp.WithDescription("Get the current deck grouped by section with card counts. Read-only."),
	)
}

func clearDeckTool() mcp.Tool {
	return mcp.NewTool("clear_deck",
		mcp.WithDescription("Remove every card from the deck."),
	)
}

func exportDeckTool() mcp.Tool {
	return mcp.NewTool("export_deck",
		mcp.WithDescription("Export the deck as a text deck list (count, name, set code, number per line)."),
	)
}

func importDeckTool() mcp.Tool {
	return mcp.NewTool("import_deck",
		mcp.WithDescription("Replace the deck with a text deck list. Lines that cannot be resolved are skipped "+
			"and reported in diagnostics."),
		mcp.WithString("list", mcp.Required(), mcp.Description("Deck list text, e.g. '4 Charmander SVI 4' per line")),
	)
}

func listSetsTool() mcp.Tool {
	return mcp.NewTool("list_sets",
		mcp.WithDescription("List the catalog's sets with their codes. Read-only."),
	)
}

// --- Tool handlers ---

func (s *Session) handleSearchCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sort, err := query.ParseSort(request.GetString("sort", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f := query.Filters{
		Format:      request.GetString("format", ""),
		CardType:    request.GetString("card_type", ""),
		SubType:     request.GetString("subtype", ""),
		PokemonType: request.GetString("pokemon_type", ""),
		Sort:        sort,
	}

	st, err := s.b.Search(ctx, request.GetString("name", ""), f)
	switch {
	case errors.Is(err, search.ErrSuperseded):
		return mcp.NewToolResultError("Search was replaced by a newer one."), nil
	case err != nil && !errors.Is(err, search.ErrResultSetTooLarge):
		return mcp.NewToolResultErrorf("Search failed: %v", err), nil
	}

	resp := s.respond()
	resp.Search = newSearchView(st)
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (s *Session) handleLoadMore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp := s.respond()
	resp.Search = newSearchView(s.b.LoadMore())
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (s *Session) handleEvolutions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("card_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var dir builder.Direction
	switch request.GetString("direction", "") {
	case "from":
		dir = builder.EvolvesFrom
	case "to":
		dir = builder.EvolvesTo
	default:
		return mcp.NewToolResultError("direction must be 'from' or 'to'"), nil
	}

	c, err := s.b.Card(ctx, id)
	if err != nil {
		return mcp.NewToolResultErrorf("Card %s: %v", id, err), nil
	}
	st, err := s.b.Evolutions(ctx, c, dir)
	if errors.Is(err, builder.ErrNoEvolution) {
		return mcp.NewToolResultErrorf("%s has no evolution in that direction.", c.Name), nil
	}
	if err != nil && !errors.Is(err, search.ErrResultSetTooLarge) {
		return mcp.NewToolResultErrorf("Search failed: %v", err), nil
	}

	resp := s.respond()
	resp.Search = newSearchView(st)
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (s *Session) handleAddCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("card_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := request.GetInt("count", 1)
	if count < 1 {
		return mcp.NewToolResultError("count must be >= 1"), nil
	}

	for i := 0; i < count; i++ {
		if _, err := s.b.Add(ctx, id); err != nil {
			switch {
			case errors.Is(err, deck.ErrLimitReached):
				return mcp.NewToolResultErrorf("Added %d of %d: %v", i, count, err), nil
			case errors.Is(err, catalog.ErrNotFound):
				return mcp.NewToolResultErrorf("No card with id %q.", id), nil
			default:
				return mcp.NewToolResultErrorf("Add failed: %v", err), nil
			}
		}
	}

	resp := s.respond()
	resp.Deck = newDeckView(s.b.Deck())
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (s *Session) handleRemoveCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("card_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.b.Deck().Count(id) == 0 {
		return mcp.NewToolResultErrorf("Card %q is not in the deck.", id), nil
	}
	d, err := s.b.Remove(ctx, id)
	if err != nil {
		return mcp.NewToolResultErrorf("Remove failed: %v", err), nil
	}

	resp := s.respond()
	resp.Deck = newDeckView(d)
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (s *Session) handleGetDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp := s.respond()
	resp.Deck = newDeckView(s.b.Deck())
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (s *Session) handleClearDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.b.Clear(ctx); err != nil {
		return mcp.NewToolResultErrorf("Clear failed: %v", err), nil
	}
	resp := s.respond()
	resp.Deck = newDeckView(s.b.Deck())
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (s *Session) handleExportDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.b.Export(ctx)
	resp := s.respond()
	resp.List = list
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (s *Session) handleImportDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := request.RequireString("list")
	if err != nil || strings.TrimSpace(list) == "" {
		return mcp.NewToolResultError("list must not be empty"), nil
	}

	res, err := s.b.Import(ctx, list)
	if err != nil {
		return mcp.NewToolResultErrorf("Import failed, deck unchanged: %v", err), nil
	}

	resp := s.respond()
	resp.Deck = newDeckView(res.Deck)
	resp.Diagnostics = res.Diagnostics
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (s *Session) handleListSets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.b.Sets(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("List sets failed: %v", err), nil
	}
	resp := s.respond()
	resp.Sets = list
	return mcp.NewToolResultText(respondJSON(resp)), nil
}
