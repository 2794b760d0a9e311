// Package deck holds the deck model, its copy-limit rules and the plain-text
// deck list format.
package deck

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
)

const (
	// MaxCopies is the most copies of one card identity a deck may hold.
	MaxCopies = 4
	// TargetSize is the size of a complete deck.
	TargetSize = 60
)

// ErrLimitReached is returned when adding a card would exceed MaxCopies.
var ErrLimitReached = errors.New("deck already holds the maximum number of copies")

// Entry is one card in the deck and how many copies of it are included.
type Entry struct {
	Card  catalog.Card `json:"card" yaml:"card"`
	Count int          `json:"count" yaml:"count"`
}

// Deck maps a card id to its entry. A Deck value is never changed in place:
// Add and Remove return a new Deck.
type Deck map[string]Entry

// Clone returns a shallow copy of the deck.
func (d Deck) Clone() Deck {
	out := make(Deck, len(d))
	for id, e := range d {
		out[id] = e
	}
	return out
}

// Add returns the deck with one more copy of c. The second result is false,
// and the deck unchanged, when the copy limit forbids the add.
func (d Deck) Add(c catalog.Card) (Deck, bool) {
	if c.ID == "" || !CanAdd(d, c) {
		return d, false
	}
	out := d.Clone()
	e, ok := out[c.ID]
	if !ok {
		e = Entry{Card: c}
	}
	e.Count++
	out[c.ID] = e
	return out, true
}

// Remove returns the deck with one copy of the card id removed. The entry is
// dropped when its count reaches zero. Unknown ids are ignored.
func (d Deck) Remove(id string) Deck {
	e, ok := d[id]
	if !ok {
		return d
	}
	out := d.Clone()
	if e.Count <= 1 {
		delete(out, id)
	} else {
		e.Count--
		out[id] = e
	}
	return out
}

// Count returns the copies of a card id in the deck.
func (d Deck) Count(id string) int {
	return d[id].Count
}

// Total returns the number of cards in the deck.
func (d Deck) Total() int {
	n := 0
	for _, e := range d {
		n += e.Count
	}
	return n
}

// Sections are the deck list sections in display order.
var Sections = []catalog.Supertype{
	catalog.SupertypePokemon,
	catalog.SupertypeTrainer,
	catalog.SupertypeEnergy,
}

// Section returns the section a card is listed under.
func Section(c catalog.Card) catalog.Supertype {
	return c.Supertype
}

// Entries returns the entries ordered by section, then name, then id.
// Cards of unknown supertype sort last.
func (d Deck) Entries() []Entry {
	out := make([]Entry, 0, len(d))
	for _, e := range d {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(sectionRank(a.Card), sectionRank(b.Card)); c != 0 {
			return c
		}
		return compareByName(a, b)
	})
	return out
}

func compareByName(a, b Entry) int {
	if c := cmp.Compare(strings.ToLower(a.Card.Name), strings.ToLower(b.Card.Name)); c != 0 {
		return c
	}
	return cmp.Compare(a.Card.ID, b.Card.ID)
}

func sectionRank(c catalog.Card) int {
	if i := slices.Index(Sections, Section(c)); i >= 0 {
		return i
	}
	return len(Sections)
}

// SectionSummary counts one section.
type SectionSummary struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	Cards   int    `json:"cards"`
}

// Summary describes a deck's size against the target.
type Summary struct {
	Sections []SectionSummary `json:"sections"`
	Total    int              `json:"total"`
	Target   int              `json:"target"`
	Complete bool             `json:"complete"`
}

// Summary returns per-section counts and whether the deck reached
// TargetSize.
func (d Deck) Summary() Summary {
	s := Summary{Target: TargetSize}
	for _, sec := range Sections {
		ss := SectionSummary{Name: sec.String()}
		for _, e := range d {
			if Section(e.Card) == sec {
				ss.Entries++
				ss.Cards += e.Count
			}
		}
		s.Sections = append(s.Sections, ss)
	}
	s.Total = d.Total()
	s.Complete = s.Total == TargetSize
	return s
}
