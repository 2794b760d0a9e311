// Package search runs catalog searches, memoizes full result sets by query,
// and serves them a page at a time.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/logging"
	"github.com/peterkuimelis/tcgdeck/internal/metrics"
	"github.com/peterkuimelis/tcgdeck/internal/query"
)

// fetchTimeout bounds a shared page sequence once it no longer follows any
// single caller's context.
const fetchTimeout = 2 * time.Minute

var (
	// ErrResultSetTooLarge is returned when a query matches more cards than
	// the fetch cap allows. The user should narrow the filters.
	ErrResultSetTooLarge = errors.New("too many matching cards, narrow your search")

	// ErrSuperseded is returned to the caller of a search whose result was
	// dropped because a newer search started in the meantime.
	ErrSuperseded = errors.New("search superseded by a newer request")
)

// Fetcher runs one catalog query page.
type Fetcher interface {
	SearchCards(ctx context.Context, q string, page, pageSize int) ([]catalog.Card, error)
}

// Enricher fills in a card's set code.
type Enricher interface {
	Enrich(ctx context.Context, c catalog.Card) catalog.Card
}

// Config sizes the engine.
type Config struct {
	// PageSize is the number of cards revealed per page.
	PageSize int
	// FetchPageSize is the catalog batch size.
	FetchPageSize int
	// MaxPages caps catalog batches per query.
	MaxPages int
	// RegulationMarks overrides the Standard-legal marks.
	RegulationMarks []string
}

// DefaultConfig returns the default engine sizing.
func DefaultConfig() Config {
	return Config{
		PageSize:      20,
		FetchPageSize: catalog.MaxPageSize,
		MaxPages:      8,
	}
}

// State is the observable search state.
type State struct {
	Term     string         `json:"term"`
	Filters  query.Filters  `json:"filters"`
	Query    string         `json:"query"`
	Results  []catalog.Card `json:"results"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	HasMore  bool           `json:"hasMore"`
	Loading  bool           `json:"loading"`
	TooLarge bool           `json:"tooLarge,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Engine is the search and result cache engine. It is safe for concurrent
// use; the result cache lives as long as the engine.
type Engine struct {
	fetcher  Fetcher
	enricher Enricher
	cfg      Config
	flight   singleflight.Group

	mu    sync.Mutex
	cache map[string][]catalog.Card
	token uint64
	state State
	full  []catalog.Card
	subs  map[int]chan State
	subID int
}

// New creates an engine.
func New(fetcher Fetcher, enricher Enricher, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.FetchPageSize <= 0 || cfg.FetchPageSize > catalog.MaxPageSize {
		cfg.FetchPageSize = def.FetchPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	return &Engine{
		fetcher:  fetcher,
		enricher: enricher,
		cfg:      cfg,
		cache:    make(map[string][]catalog.Card),
		subs:     make(map[int]chan State),
	}
}

// Search runs a search and publishes its outcome. An empty query clears the
// results without touching the network. On failure the previous results are
// kept and the error is recorded in the state.
func (e *Engine) Search(ctx context.Context, term string, f query.Filters) (State, error) {
	q := query.Build(term, f, query.Options{RegulationMarks: e.cfg.RegulationMarks})

	e.mu.Lock()
	e.token++
	tok := e.token
	if q == "" {
		e.full = nil
		e.state = State{Term: term, Filters: f}
		e.publishLocked()
		st := e.state
		e.mu.Unlock()
		return st, nil
	}
	e.state.Loading = true
	e.state.Error = ""
	e.publishLocked()
	e.mu.Unlock()

	raw, err := e.fetch(ctx, q)
	if err != nil {
		return e.fail(tok, term, f, q, err)
	}

	cards := make([]catalog.Card, 0, len(raw))
	for _, c := range raw {
		c = e.enricher.Enrich(ctx, c)
		if matchesText(c, term) {
			cards = append(cards, c)
		}
	}
	sortCards(cards, f.Sort)

	e.mu.Lock()
	defer e.mu.Unlock()
	if tok != e.token {
		metrics.SearchesSuperseded.Inc()
		return e.state, ErrSuperseded
	}
	e.full = cards
	e.state = State{Term: term, Filters: f, Query: q, Total: len(cards)}
	e.showLocked(1)
	e.publishLocked()

	logging.Debug().Str("query", q).Int("fetched", len(raw)).Int("matched", len(cards)).Msg("search completed")
	return e.state, nil
}

func (e *Engine) fail(tok uint64, term string, f query.Filters, q string, err error) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tok != e.token {
		metrics.SearchesSuperseded.Inc()
		return e.state, ErrSuperseded
	}

	if errors.Is(err, ErrResultSetTooLarge) {
		e.full = nil
		e.state = State{Term: term, Filters: f, Query: q, TooLarge: true, Error: err.Error()}
	} else {
		e.state.Loading = false
		e.state.Error = err.Error()
		logging.Warn().Err(err).Str("query", q).Msg("search failed")
	}
	e.publishLocked()
	return e.state, err
}

// fetch returns the raw result set for q, from the cache or the catalog.
// Concurrent fetches of the same query share one page sequence; a caller
// whose ctx ends stops waiting without cancelling the others.
func (e *Engine) fetch(ctx context.Context, q string) ([]catalog.Card, error) {
	if raw, ok := e.cached(q); ok {
		metrics.CacheHits.WithLabelValues("search").Inc()
		return raw, nil
	}

	ch := e.flight.DoChan(q, func() (any, error) {
		if raw, ok := e.cached(q); ok {
			return raw, nil
		}
		metrics.CacheMisses.WithLabelValues("search").Inc()

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		var all []catalog.Card
		for page := 1; ; page++ {
			batch, err := e.fetcher.SearchCards(fctx, q, page, e.cfg.FetchPageSize)
			if err != nil {
				return nil, err
			}
			all = append(all, batch...)
			if len(batch) < e.cfg.FetchPageSize {
				break
			}
			if page >= e.cfg.MaxPages {
				return nil, fmt.Errorf("%w: more than %d cards", ErrResultSetTooLarge, page*e.cfg.FetchPageSize)
			}
		}

		e.mu.Lock()
		e.cache[q] = all
		e.mu.Unlock()
		return all, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]catalog.Card), nil
	}
}

func (e *Engine) cached(q string) ([]catalog.Card, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	raw, ok := e.cache[q]
	return raw, ok
}

// LoadMore reveals the next page of the current result set. It never
// touches the network.
func (e *Engine) LoadMore() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.HasMore {
		e.showLocked(e.state.Page + 1)
		e.publishLocked()
	}
	return e.state
}

// Reset clears the results and drops any search in flight.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.token++
	e.full = nil
	e.state = State{}
	e.publishLocked()
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// showLocked sets the visible window to the first page pages.
func (e *Engine) showLocked(page int) {
	end := page * e.cfg.PageSize
	if end > len(e.full) {
		end = len(e.full)
	}
	e.state.Page = page
	e.state.Results = e.full[:end:end]
	e.state.HasMore = end < len(e.full)
	e.state.Loading = false
}

// Subscribe returns a channel that receives the state after every change.
// Slow subscribers only see the latest state. Call cancel to unsubscribe.
func (e *Engine) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	e.mu.Lock()
	e.subID++
	id := e.subID
	e.subs[id] = ch
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (e *Engine) publishLocked() {
	for _, ch := range e.subs {
		select {
		case ch <- e.state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- e.state
		}
	}
}
