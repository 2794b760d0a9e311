package query

import (
	"fmt"
	"strings"
)

// Sort selects the client-side result order.
type Sort string

const (
	SortNone     Sort = ""
	SortNameAsc  Sort = "name-asc"
	SortNameDesc Sort = "name-desc"
	SortType     Sort = "type"
)

// ParseSort validates a sort key.
func ParseSort(s string) (Sort, error) {
	switch Sort(strings.ToLower(strings.TrimSpace(s))) {
	case SortNone:
		return SortNone, nil
	case SortNameAsc:
		return SortNameAsc, nil
	case SortNameDesc:
		return SortNameDesc, nil
	case SortType:
		return SortType, nil
	default:
		return SortNone, fmt.Errorf("unknown sort %q (want name-asc, name-desc or type)", s)
	}
}

// Values offered by the filter selectors.
var (
	Formats   = []string{FormatStandard, FormatExpanded, FormatUnlimited}
	CardTypes = []string{"Pokémon", "Trainer", "Energy"}

	Subtypes = []string{
		"BREAK", "Baby", "Basic", "EX", "GX", "Goldenrod Game Corner", "Item",
		"LEGEND", "Level-Up", "MEGA", "Pokémon Tool", "Pokémon Tool F",
		"Rapid Strike", "Restored", "Rocket's Secret Machine", "Single Strike",
		"Special", "Stadium", "Stage 1", "Stage 2", "Supporter", "TAG TEAM",
		"Technical Machine", "V", "VMAX",
	}

	PokemonTypes = []string{
		"Colorless", "Fire", "Water", "Grass", "Lightning", "Psychic",
		"Fighting", "Darkness", "Metal", "Dragon", "Fairy",
	}

	Sorts = []Sort{SortNameAsc, SortNameDesc, SortType}
)
