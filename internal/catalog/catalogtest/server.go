// Package catalogtest provides an in-process fake of the catalog API for
// tests. It understands the subset of the query language the module emits.
package catalogtest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
)

// Server is a fake catalog backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	cards    []catalog.Card
	sets     []catalog.Set
	requests map[string]int
	queries  []string
	fail     bool
	failQ    []string
}

// NewServer starts a fake catalog and registers its shutdown with t.
func NewServer(t testing.TB) *Server {
	s := &Server{requests: make(map[string]int)}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cards", s.handleCards)
	mux.HandleFunc("GET /cards/{id}", s.handleCard)
	mux.HandleFunc("GET /sets", s.handleSets)
	mux.HandleFunc("GET /sets/{id}", s.handleSet)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Client returns a catalog client pointed at the fake.
func (s *Server) Client() *catalog.Client {
	return catalog.New(catalog.Config{BaseURL: s.URL})
}

// AddCards appends cards to the fake catalog, in catalog order.
func (s *Server) AddCards(cards ...catalog.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cards = append(s.cards, cards...)
}

// AddSets appends sets to the fake catalog.
func (s *Server) AddSets(sets ...catalog.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = append(s.sets, sets...)
}

// SetFailing makes every request answer 503 until called with false.
func (s *Server) SetFailing(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// FailQueries makes card searches whose q contains any of the given
// substrings answer 503.
func (s *Server) FailQueries(substrs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failQ = append(s.failQ, substrs...)
}

// Requests returns how many requests hit the given route
// ("cards", "card", "sets", "set").
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// TotalRequests returns the number of requests served.
func (s *Server) TotalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.requests {
		n += v
	}
	return n
}

// Queries returns every q parameter received, in order.
func (s *Server) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func (s *Server) begin(w http.ResponseWriter, route string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[route]++
	if s.fail {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w, "cards") {
		return
	}
	q := r.URL.Query().Get("q")
	page := atoiDefault(r.URL.Query().Get("page"), 1)
	size := atoiDefault(r.URL.Query().Get("pageSize"), 250)

	s.mu.Lock()
	s.queries = append(s.queries, q)
	for _, sub := range s.failQ {
		if strings.Contains(q, sub) {
			s.mu.Unlock()
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	var matched []catalog.Card
	for _, c := range s.cards {
		if Matches(q, c) {
			matched = append(matched, c)
		}
	}
	s.mu.Unlock()

	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	data := make([]map[string]any, 0, end-start)
	for _, c := range matched[start:end] {
		data = append(data, wireCard(c))
	}
	writeJSON(w, map[string]any{
		"data":       data,
		"page":       page,
		"pageSize":   size,
		"count":      len(data),
		"totalCount": len(matched),
	})
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w, "card") {
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cards {
		if c.ID == id {
			writeJSON(w, map[string]any{"data": wireCard(c)})
			return
		}
	}
	http.NotFound(w, r)
}

func (s *Server) handleSets(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w, "sets") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make([]map[string]any, 0, len(s.sets))
	for _, set := range s.sets {
		data = append(data, wireSet(set))
	}
	writeJSON(w, map[string]any{"data": data})
}

func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	if !s.begin(w, "set") {
		return
	}
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, set := range s.sets {
		if set.ID == id {
			writeJSON(w, map[string]any{"data": wireSet(set)})
			return
		}
	}
	http.NotFound(w, r)
}

// Matches evaluates a catalog query against a card. Clauses are joined by
// " AND "; a parenthesized clause is a disjunction joined by " OR ".
func Matches(q string, c catalog.Card) bool {
	if strings.TrimSpace(q) == "" {
		return true
	}
	for _, clause := range splitClauses(q) {
		if strings.HasPrefix(clause, "(") && strings.HasSuffix(clause, ")") {
			hit := false
			for _, alt := range strings.Split(clause[1:len(clause)-1], " OR ") {
				if matchClause(strings.TrimSpace(alt), c) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
			continue
		}
		if !matchClause(clause, c) {
			return false
		}
	}
	return true
}

// splitClauses splits on " AND " outside of quotes. Clauses may also be
// separated by a plain space, as in "set.id:sv1 number:12".
func splitClauses(q string) []string {
	var out []string
	var cur strings.Builder
	inQuote, depth := false, 0
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" && s != "AND" {
			out = append(out, s)
		}
		cur.Reset()
	}
	for _, r := range q {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == '(' && !inQuote:
			depth++
		case r == ')' && !inQuote:
			depth--
		case r == ' ' && !inQuote && depth == 0:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

func matchClause(clause string, c catalog.Card) bool {
	field, value, ok := strings.Cut(clause, ":")
	if !ok {
		return false
	}
	value = strings.Trim(value, `"`)
	switch {
	case field == "name":
		return strings.Contains(strings.ToLower(c.Name), strings.ToLower(value))
	case field == "supertype":
		return catalog.ParseSupertype(value) == c.Supertype
	case field == "subtypes":
		return c.HasSubtype(value)
	case field == "types":
		for _, t := range c.Types {
			if strings.EqualFold(t, value) {
				return true
			}
		}
		return false
	case field == "set.id":
		return c.Set.ID == value
	case field == "number":
		return c.Number == value
	case field == "regulationMark":
		return c.RegulationMark == value
	case field == "id":
		return c.ID == value
	case strings.HasPrefix(field, "legalities."):
		return strings.EqualFold(c.Legalities[strings.TrimPrefix(field, "legalities.")], value)
	default:
		return false
	}
}

func wireCard(c catalog.Card) map[string]any {
	m := map[string]any{
		"id":        c.ID,
		"name":      c.Name,
		"supertype": c.Supertype.String(),
		"number":    c.Number,
		"set": map[string]any{
			"id":        c.Set.ID,
			"name":      c.Set.Name,
			"series":    c.Set.Series,
			"ptcgoCode": c.Set.Code,
		},
	}
	if len(c.Subtypes) > 0 {
		m["subtypes"] = c.Subtypes
	}
	if len(c.Types) > 0 {
		m["types"] = c.Types
	}
	if len(c.Rules) > 0 {
		m["rules"] = c.Rules
	}
	if len(c.Attacks) > 0 {
		m["attacks"] = c.Attacks
	}
	if len(c.Abilities) > 0 {
		m["abilities"] = c.Abilities
	}
	if c.EvolvesFrom != "" {
		m["evolvesFrom"] = c.EvolvesFrom
	}
	if len(c.EvolvesTo) > 0 {
		m["evolvesTo"] = c.EvolvesTo
	}
	if c.RegulationMark != "" {
		m["regulationMark"] = c.RegulationMark
	}
	if len(c.Legalities) > 0 {
		m["legalities"] = c.Legalities
	}
	if c.Images.Small != "" || c.Images.Large != "" {
		m["images"] = c.Images
	}
	return m
}

func wireSet(s catalog.Set) map[string]any {
	m := map[string]any{
		"id":          s.ID,
		"name":        s.Name,
		"series":      s.Series,
		"releaseDate": s.ReleaseDate,
	}
	if s.Code != "" {
		m["ptcgoCode"] = s.Code
	}
	return m
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Pokemon builds a Pokémon card for tests.
func Pokemon(id, name, setID, number string, attacks ...string) catalog.Card {
	c := catalog.Card{
		ID:        id,
		Name:      name,
		Supertype: catalog.SupertypePokemon,
		Subtypes:  []string{"Basic"},
		Set:       catalog.SetRef{ID: setID},
		Number:    number,
	}
	for _, a := range attacks {
		c.Attacks = append(c.Attacks, catalog.Attack{Name: a})
	}
	return c
}

// Trainer builds a Trainer card for tests.
func Trainer(id, name, setID, number string) catalog.Card {
	return catalog.Card{
		ID:        id,
		Name:      name,
		Supertype: catalog.SupertypeTrainer,
		Subtypes:  []string{"Supporter"},
		Set:       catalog.SetRef{ID: setID},
		Number:    number,
	}
}

// Energy builds an Energy card for tests.
func Energy(id, name, setID, number string) catalog.Card {
	return catalog.Card{
		ID:        id,
		Name:      name,
		Supertype: catalog.SupertypeEnergy,
		Subtypes:  []string{"Basic"},
		Set:       catalog.SetRef{ID: setID},
		Number:    number,
	}
}

// SortedIDs returns the ids of cards, sorted.
func SortedIDs(cards []catalog.Card) []string {
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	sort.Strings(ids)
	return ids
}
