// Package query turns a free-text term and a filter selection into a catalog
// query string.
package query

import (
	"fmt"
	"strings"
)

// Formats.
const (
	FormatStandard  = "standard"
	FormatExpanded  = "expanded"
	FormatUnlimited = "unlimited"
)

// StandardRegulationMarks are the regulation marks legal in the Standard
// format. Update on rotation; config search.regulation_marks overrides it.
var StandardRegulationMarks = []string{"G", "H", "I"}

// Filters is the user's filter selection. Empty strings mean unset.
type Filters struct {
	Format      string `json:"format,omitempty"`
	CardType    string `json:"cardType,omitempty"`
	SubType     string `json:"subType,omitempty"`
	PokemonType string `json:"pokemonType,omitempty"`
	Sort        Sort   `json:"sort,omitempty"`
}

// Options tunes query building.
type Options struct {
	// RegulationMarks overrides StandardRegulationMarks when non-empty.
	RegulationMarks []string
}

func (o Options) marks() []string {
	if len(o.RegulationMarks) > 0 {
		return o.RegulationMarks
	}
	return StandardRegulationMarks
}

// cardType returns the normalized card-type filter, "" when unset.
func (f Filters) cardType() string {
	ct := strings.TrimSpace(f.CardType)
	if strings.EqualFold(ct, "all") {
		return ""
	}
	return ct
}

func (f Filters) isCardType(name string) bool {
	return strings.EqualFold(f.cardType(), name) ||
		(name == "Pokémon" && strings.EqualFold(f.cardType(), "Pokemon"))
}

// Build returns the catalog query for term and f. An empty result means
// there is nothing to search for.
func Build(term string, f Filters, opts Options) string {
	var clauses []string

	term = strings.TrimSpace(term)
	if term != "" {
		clauses = append(clauses, "name:"+quoteIfSpaced(term))
	}

	switch strings.ToLower(strings.TrimSpace(f.Format)) {
	case FormatStandard:
		if !basicEnergyException(term, f) {
			clauses = append(clauses, regulationClause(opts.marks()))
		}
	case FormatExpanded:
		clauses = append(clauses, "legalities.expanded:legal")
	case FormatUnlimited:
		clauses = append(clauses, "legalities.unlimited:legal")
	}

	if ct := f.cardType(); ct != "" {
		clauses = append(clauses, fmt.Sprintf("supertype:%q", ct))
	}
	if st := strings.TrimSpace(f.SubType); st != "" {
		clauses = append(clauses, fmt.Sprintf("subtypes:%q", st))
	}
	if pt := strings.TrimSpace(f.PokemonType); pt != "" && f.isCardType("Pokémon") {
		clauses = append(clauses, fmt.Sprintf("types:%q", pt))
	}

	return strings.Join(clauses, " AND ")
}

// basicEnergyException reports whether the search targets basic energy,
// which carries no regulation mark and is always Standard-legal.
func basicEnergyException(term string, f Filters) bool {
	if !strings.Contains(strings.ToLower(term), "basic") {
		return false
	}
	return f.cardType() == "" || f.isCardType("Energy")
}

func regulationClause(marks []string) string {
	parts := make([]string, 0, len(marks))
	for _, m := range marks {
		parts = append(parts, "regulationMark:"+m)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

func quoteIfSpaced(s string) string {
	if strings.ContainsAny(s, " \t") {
		return `"` + strings.ReplaceAll(s, `"`, "") + `"`
	}
	return s
}
