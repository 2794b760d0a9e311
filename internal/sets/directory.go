// Package sets caches the catalog's set list and translates between set ids
// and the short set codes used in deck lists.
package sets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/logging"
	"github.com/peterkuimelis/tcgdeck/internal/metrics"
)

// UnknownCode is written in place of a set code that cannot be resolved.
const UnknownCode = "?"

// fetchTimeout bounds a shared fetch, which outlives the caller that
// started it.
const fetchTimeout = time.Minute

// Source is the part of the catalog client the directory needs.
type Source interface {
	Sets(ctx context.Context) ([]catalog.Set, error)
	Set(ctx context.Context, id string) (catalog.Set, error)
}

// Directory is a process-lifetime cache of the set list. The list is fetched
// once; concurrent callers before the first fetch completes share it. A
// failed fetch is not cached.
type Directory struct {
	src    Source
	flight singleflight.Group

	mu       sync.RWMutex
	loaded   bool
	sets     []catalog.Set
	idToCode map[string]string
	codeToID map[string]string
	// lowerToID maps lowercased codes to the id of the first set listed
	// with that code.
	lowerToID map[string]string
	// misses records ids already looked up individually, including failures,
	// so an unknown id costs one request per process.
	misses map[string]bool
}

// NewDirectory creates an empty directory over src.
func NewDirectory(src Source) *Directory {
	return &Directory{
		src:       src,
		idToCode:  make(map[string]string),
		codeToID:  make(map[string]string),
		lowerToID: make(map[string]string),
		misses:    make(map[string]bool),
	}
}

// Load fetches the set list if it has not been fetched yet. Cancelling ctx
// stops the wait, not a fetch other callers share.
func (d *Directory) Load(ctx context.Context) error {
	d.mu.RLock()
	loaded := d.loaded
	d.mu.RUnlock()
	if loaded {
		metrics.CacheHits.WithLabelValues("sets").Inc()
		return nil
	}

	ch := d.flight.DoChan("all", func() (any, error) {
		d.mu.RLock()
		loaded := d.loaded
		d.mu.RUnlock()
		if loaded {
			return nil, nil
		}

		metrics.CacheMisses.WithLabelValues("sets").Inc()
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		list, err := d.src.Sets(fctx)
		if err != nil {
			return nil, fmt.Errorf("fetch sets: %w", err)
		}

		d.mu.Lock()
		defer d.mu.Unlock()
		d.sets = list
		for _, s := range list {
			d.indexLocked(s)
		}
		d.loaded = true
		logging.Debug().Int("sets", len(list)).Msg("set directory loaded")
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		return r.Err
	}
}

func (d *Directory) indexLocked(s catalog.Set) {
	if s.Code == "" {
		return
	}
	d.idToCode[s.ID] = s.Code
	if _, dup := d.codeToID[s.Code]; !dup {
		d.codeToID[s.Code] = s.ID
	}
	lower := strings.ToLower(s.Code)
	if _, dup := d.lowerToID[lower]; !dup {
		d.lowerToID[lower] = s.ID
	}
}

// Code returns the set code for a set id, or UnknownCode. Ids missing from
// the list are looked up individually once.
func (d *Directory) Code(ctx context.Context, setID string) string {
	if setID == "" {
		return UnknownCode
	}
	if err := d.Load(ctx); err != nil {
		logging.Warn().Err(err).Str("set", setID).Msg("set directory unavailable")
	}

	d.mu.RLock()
	code, ok := d.idToCode[setID]
	missed := d.misses[setID]
	d.mu.RUnlock()
	if ok {
		return code
	}
	if missed {
		return UnknownCode
	}

	ch := d.flight.DoChan("set:"+setID, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		s, err := d.src.Set(fctx, setID)

		d.mu.Lock()
		defer d.mu.Unlock()
		if err != nil || s.Code == "" {
			if err != nil && !errors.Is(err, catalog.ErrNotFound) {
				// Transient failure: allow a later retry.
				logging.Warn().Err(err).Str("set", setID).Msg("set lookup failed")
				return UnknownCode, nil
			}
			d.misses[setID] = true
			return UnknownCode, nil
		}
		d.indexLocked(s)
		return s.Code, nil
	})

	select {
	case <-ctx.Done():
		return UnknownCode
	case r := <-ch:
		return r.Val.(string)
	}
}

// SetID resolves a set code to a set id. Exact matches win; otherwise a
// case-insensitive match is tried. The error is non-nil only when the
// directory could not be loaded.
func (d *Directory) SetID(ctx context.Context, code string) (string, bool, error) {
	if err := d.Load(ctx); err != nil {
		return "", false, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if id, ok := d.codeToID[code]; ok {
		return id, true, nil
	}
	id, ok := d.lowerToID[strings.ToLower(code)]
	return id, ok, nil
}

// Sets returns the set list ordered by release date, newest first.
func (d *Directory) Sets(ctx context.Context) ([]catalog.Set, error) {
	if err := d.Load(ctx); err != nil {
		return nil, err
	}

	d.mu.RLock()
	out := append([]catalog.Set(nil), d.sets...)
	d.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReleaseDate > out[j].ReleaseDate
	})
	return out, nil
}

// Enrich fills in the set code of a card from the directory when the card's
// record does not carry one.
func (d *Directory) Enrich(ctx context.Context, c catalog.Card) catalog.Card {
	if c.Set.Code != "" {
		return c
	}
	return c.WithSetCode(d.Code(ctx, c.Set.ID))
}
