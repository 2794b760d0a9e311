package mcp

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/peterkuimelis/tcgdeck/internal/builder"
	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/deck"
	"github.com/peterkuimelis/tcgdeck/internal/log"
	"github.com/peterkuimelis/tcgdeck/internal/search"
)

// EventView is a deck event as presented in tool responses.
type EventView struct {
	Seq     int    `json:"seq"`
	Type    string `json:"type"`
	Card    string `json:"card,omitempty"`
	Details string `json:"details"`
}

// CardView is a compact card description for the model.
type CardView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Supertype   string   `json:"supertype"`
	Subtypes    []string `json:"subtypes,omitempty"`
	Types       []string `json:"types,omitempty"`
	HP          string   `json:"hp,omitempty"`
	Set         string   `json:"set"`
	Number      string   `json:"number"`
	EvolvesFrom string   `json:"evolves_from,omitempty"`
	Attacks     []string `json:"attacks,omitempty"`
	Abilities   []string `json:"abilities,omitempty"`
}

// EntryView is one deck line.
type EntryView struct {
	Count int      `json:"count"`
	Card  CardView `json:"card"`
}

// DeckView is the deck as presented in tool responses.
type DeckView struct {
	Entries  []EntryView    `json:"entries"`
	Sections map[string]int `json:"sections"`
	Total    int            `json:"total"`
	Target   int            `json:"target"`
	Complete bool           `json:"complete"`
}

// SearchView is one page of search results.
type SearchView struct {
	Query    string     `json:"query"`
	Results  []CardView `json:"results"`
	Shown    int        `json:"shown"`
	Total    int        `json:"total"`
	HasMore  bool       `json:"has_more"`
	TooLarge bool       `json:"too_large,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	Events      []EventView       `json:"events"`
	Search      *SearchView       `json:"search,omitempty"`
	Deck        *DeckView         `json:"deck,omitempty"`
	List        string            `json:"list,omitempty"`
	Diagnostics []deck.Diagnostic `json:"diagnostics,omitempty"`
	Sets        []catalog.Set     `json:"sets,omitempty"`
}

// Session is the deck-building session behind the MCP tools, one per stdio
// process. Every response carries the deck events logged since the previous
// response.
type Session struct {
	b      *builder.Builder
	events *log.MemoryLogger

	mu     sync.Mutex
	cursor int
}

// NewSession wraps a builder whose activity is recorded in events.
func NewSession(b *builder.Builder, events *log.MemoryLogger) *Session {
	return &Session{b: b, events: events}
}

// drainEvents returns the events logged since the last drain.
func (s *Session) drainEvents() []EventView {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := []EventView{}
	for _, e := range s.events.Since(s.cursor) {
		views = append(views, EventView{Seq: e.Seq, Type: e.Type.String(), Card: e.Card, Details: e.Details})
		s.cursor = e.Seq
	}
	return views
}

// respond builds a ToolResponse with the pending events.
func (s *Session) respond() *ToolResponse {
	return &ToolResponse{Events: s.drainEvents()}
}

func newCardView(c catalog.Card) CardView {
	v := CardView{
		ID:          c.ID,
		Name:        c.Name,
		Supertype:   c.Supertype.String(),
		Subtypes:    c.Subtypes,
		Types:       c.Types,
		HP:          c.HP,
		Set:         c.Set.Code,
		Number:      c.Number,
		EvolvesFrom: c.EvolvesFrom,
	}
	for _, a := range c.Attacks {
		v.Attacks = append(v.Attacks, a.Name)
	}
	for _, a := range c.Abilities {
		v.Abilities = append(v.Abilities, a.Name)
	}
	return v
}

func newDeckView(d deck.Deck) *DeckView {
	sum := d.Summary()
	v := &DeckView{
		Entries:  []EntryView{},
		Sections: make(map[string]int, len(sum.Sections)),
		Total:    sum.Total,
		Target:   sum.Target,
		Complete: sum.Complete,
	}
	for _, sec := range sum.Sections {
		v.Sections[sec.Name] = sec.Cards
	}
	for _, e := range d.Entries() {
		v.Entries = append(v.Entries, EntryView{Count: e.Count, Card: newCardView(e.Card)})
	}
	return v
}

func newSearchView(st search.State) *SearchView {
	v := &SearchView{
		Query:    st.Query,
		Results:  make([]CardView, 0, len(st.Results)),
		Shown:    len(st.Results),
		Total:    st.Total,
		HasMore:  st.HasMore,
		TooLarge: st.TooLarge,
		Error:    st.Error,
	}
	for _, c := range st.Results {
		v.Results = append(v.Results, newCardView(c))
	}
	return v
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
