package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/deck"
	"github.com/peterkuimelis/tcgdeck/internal/logging"
	"github.com/peterkuimelis/tcgdeck/internal/query"
	"github.com/peterkuimelis/tcgdeck/internal/search"
)

// maxImportBytes bounds an uploaded deck list.
const maxImportBytes = 1 << 20

var validate = validator.New()

// searchRequest is the query string of GET /api/search.
type searchRequest struct {
	Term        string `validate:"max=200"`
	Format      string `validate:"omitempty,oneof=standard expanded unlimited"`
	CardType    string `validate:"omitempty,max=40"`
	SubType     string `validate:"omitempty,max=40"`
	PokemonType string `validate:"omitempty,max=40"`
	Sort        string
}

// importRequest is the JSON form of POST /api/deck/import.
type importRequest struct {
	Text string `json:"text" validate:"required"`
}

// DeckView is the JSON representation of the deck for the /api/deck endpoints.
type DeckView struct {
	Entries []deck.Entry `json:"entries"`
	Summary deck.Summary `json:"summary"`
}

// ImportView is the response of POST /api/deck/import.
type ImportView struct {
	Deck        DeckView          `json:"deck"`
	Diagnostics []deck.Diagnostic `json:"diagnostics"`
	Parsed      int               `json:"parsed"`
	Resolved    int               `json:"resolved"`
}

// FiltersView lists the values offered by each filter.
type FiltersView struct {
	Formats      []string     `json:"formats"`
	CardTypes    []string     `json:"cardTypes"`
	Subtypes     []string     `json:"subtypes"`
	PokemonTypes []string     `json:"pokemonTypes"`
	Sorts        []query.Sort `json:"sorts"`
}

func newDeckView(d deck.Deck) DeckView {
	return DeckView{Entries: d.Entries(), Summary: d.Summary()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, deck.ErrLimitReached), errors.Is(err, search.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, search.ErrResultSetTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FiltersView{
		Formats:      query.Formats,
		CardTypes:    query.CardTypes,
		Subtypes:     query.Subtypes,
		PokemonTypes: query.PokemonTypes,
		Sorts:        query.Sorts,
	})
}

func (s *Server) handleSets(w http.ResponseWriter, r *http.Request) {
	list, err := s.b.Sets(r.Context())
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := searchRequest{
		Term:        q.Get("q"),
		Format:      strings.ToLower(q.Get("format")),
		CardType:    q.Get("cardType"),
		SubType:     q.Get("subType"),
		PokemonType: q.Get("pokemonType"),
		Sort:        q.Get("sort"),
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sort, err := query.ParseSort(req.Sort)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	st, err := s.b.Search(r.Context(), req.Term, query.Filters{
		Format:      req.Format,
		CardType:    req.CardType,
		SubType:     req.SubType,
		PokemonType: req.PokemonType,
		Sort:        sort,
	})
	status := http.StatusOK
	if err != nil {
		status = errorStatus(err)
	}
	writeJSON(w, status, st)
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.b.LoadMore())
}

func (s *Server) handleResetSearch(w http.ResponseWriter, r *http.Request) {
	s.b.ResetSearch()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newDeckView(s.b.Deck()))
}

func (s *Server) handleClearDeck(w http.ResponseWriter, r *http.Request) {
	if err := s.b.Clear(r.Context()); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newDeckView(s.b.Deck()))
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	d, err := s.b.Add(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, errorStatus(err), map[string]any{
			"error": err.Error(),
			"deck":  newDeckView(d),
		})
		return
	}
	writeJSON(w, http.StatusOK, newDeckView(d))
}

func (s *Server) handleRemoveCard(w http.ResponseWriter, r *http.Request) {
	d, err := s.b.Remove(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newDeckView(d))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, s.b.Export(r.Context()))
}

// handleImport accepts the deck list either as a plain-text body or as
// {"text": "..."}.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	req := importRequest{Text: string(body)}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		req = importRequest{}
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.b.Import(r.Context(), req.Text)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	diags := res.Diagnostics
	if diags == nil {
		diags = []deck.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, ImportView{
		Deck:        newDeckView(res.Deck),
		Diagnostics: diags,
		Parsed:      res.Parsed,
		Resolved:    res.Resolved,
	})
}
