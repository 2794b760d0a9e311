package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/query"
)

// matchesText reports whether term occurs in the card's name or in any of its
// rules, attack or ability text. The catalog name query does not look at
// effect text, so this runs after the fetch.
func matchesText(c catalog.Card, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	contains := func(s string) bool {
		return strings.Contains(strings.ToLower(s), term)
	}

	if contains(c.Name) {
		return true
	}
	for _, r := range c.Rules {
		if contains(r) {
			return true
		}
	}
	for _, a := range c.Attacks {
		if contains(a.Name) || contains(a.Text) {
			return true
		}
	}
	for _, a := range c.Abilities {
		if contains(a.Name) || contains(a.Text) {
			return true
		}
	}
	return false
}

// sortCards orders cards in place. The sort is stable so equal keys keep
// catalog order.
func sortCards(cards []catalog.Card, s query.Sort) {
	byName := func(a, b catalog.Card) int {
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}

	switch s {
	case query.SortNameAsc:
		slices.SortStableFunc(cards, byName)
	case query.SortNameDesc:
		slices.SortStableFunc(cards, func(a, b catalog.Card) int { return byName(b, a) })
	case query.SortType:
		slices.SortStableFunc(cards, func(a, b catalog.Card) int {
			if c := cmp.Compare(a.PrimaryType(), b.PrimaryType()); c != 0 {
				return c
			}
			return byName(a, b)
		})
	}
}
