package deck

import (
	"regexp"
	"slices"
	"strings"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
)

// basicEnergies are exempt from the copy limit.
var basicEnergies = []string{
	"Grass Energy",
	"Fire Energy",
	"Water Energy",
	"Lightning Energy",
	"Psychic Energy",
	"Fighting Energy",
	"Darkness Energy",
	"Metal Energy",
	"Fairy Energy",
	"Dragon Energy",
}

// IsBasicEnergy reports whether c is a basic energy card. Newer catalog
// records spell these "Basic Fire Energy".
func IsBasicEnergy(c catalog.Card) bool {
	if c.Supertype != catalog.SupertypeEnergy {
		return false
	}
	name := strings.TrimSpace(c.Name)
	if rest, ok := strings.CutPrefix(name, "Basic "); ok {
		name = rest
	}
	return slices.Contains(basicEnergies, name)
}

var parenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*`)

// NormalizeName strips parenthetical groups, collapses whitespace and
// lowercases a card name.
func NormalizeName(name string) string {
	name = parenthetical.ReplaceAllString(name, " ")
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ComparisonKey returns the identity used to group copies of a card. Pokémon
// sharing a name but not a first attack are different cards.
func ComparisonKey(c catalog.Card) string {
	key := NormalizeName(c.Name)
	if c.Supertype == catalog.SupertypePokemon {
		key += "::" + strings.ToLower(c.FirstAttack())
	}
	return key
}

// Copies returns the number of cards in d sharing c's comparison key.
func Copies(d Deck, c catalog.Card) int {
	key := ComparisonKey(c)
	n := 0
	for _, e := range d {
		if ComparisonKey(e.Card) == key {
			n += e.Count
		}
	}
	return n
}

// CanAdd reports whether one more copy of c may be added to d.
func CanAdd(d Deck, c catalog.Card) bool {
	if IsBasicEnergy(c) {
		return true
	}
	return Copies(d, c) < MaxCopies
}
