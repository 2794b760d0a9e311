package catalog

import "strings"

// Supertype is the top-level card category.
type Supertype int

const (
	SupertypeUnknown Supertype = iota
	SupertypePokemon
	SupertypeTrainer
	SupertypeEnergy
)

func (s Supertype) String() string {
	switch s {
	case SupertypePokemon:
		return "Pokémon"
	case SupertypeTrainer:
		return "Trainer"
	case SupertypeEnergy:
		return "Energy"
	default:
		return "Unknown"
	}
}

// ParseSupertype maps a catalog supertype string to a Supertype. The
// unaccented spelling is accepted as well.
func ParseSupertype(s string) Supertype {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pokémon", "pokemon":
		return SupertypePokemon
	case "trainer":
		return SupertypeTrainer
	case "energy":
		return SupertypeEnergy
	default:
		return SupertypeUnknown
	}
}

// MarshalText implements encoding.TextMarshaler so stored decks carry the
// readable name.
func (s Supertype) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Supertype) UnmarshalText(b []byte) error {
	*s = ParseSupertype(string(b))
	return nil
}

// Attack is one attack printed on a Pokémon card.
type Attack struct {
	Name   string   `json:"name" yaml:"name"`
	Text   string   `json:"text,omitempty" yaml:"text,omitempty"`
	Cost   []string `json:"cost,omitempty" yaml:"cost,omitempty"`
	Damage string   `json:"damage,omitempty" yaml:"damage,omitempty"`
}

// Ability is one ability printed on a Pokémon card.
type Ability struct {
	Name string `json:"name" yaml:"name"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// SetRef is the set information embedded in a card record.
type SetRef struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name,omitempty" yaml:"name,omitempty"`
	Series string `json:"series,omitempty" yaml:"series,omitempty"`
	// Code is the short code used in deck lists. Empty when unknown.
	Code string `json:"code,omitempty" yaml:"code,omitempty"`
}

// Images holds card image URLs.
type Images struct {
	Small string `json:"small,omitempty" yaml:"small,omitempty"`
	Large string `json:"large,omitempty" yaml:"large,omitempty"`
}

// Card is a catalog card. Values are treated as immutable.
type Card struct {
	ID             string            `json:"id" yaml:"id"`
	Name           string            `json:"name" yaml:"name"`
	Supertype      Supertype         `json:"supertype" yaml:"supertype"`
	Subtypes       []string          `json:"subtypes,omitempty" yaml:"subtypes,omitempty"`
	Types          []string          `json:"types,omitempty" yaml:"types,omitempty"`
	HP             string            `json:"hp,omitempty" yaml:"hp,omitempty"`
	EvolvesFrom    string            `json:"evolvesFrom,omitempty" yaml:"evolvesFrom,omitempty"`
	EvolvesTo      []string          `json:"evolvesTo,omitempty" yaml:"evolvesTo,omitempty"`
	Rules          []string          `json:"rules,omitempty" yaml:"rules,omitempty"`
	Abilities      []Ability         `json:"abilities,omitempty" yaml:"abilities,omitempty"`
	Attacks        []Attack          `json:"attacks,omitempty" yaml:"attacks,omitempty"`
	Set            SetRef            `json:"set" yaml:"set"`
	Number         string            `json:"number" yaml:"number"`
	Rarity         string            `json:"rarity,omitempty" yaml:"rarity,omitempty"`
	RegulationMark string            `json:"regulationMark,omitempty" yaml:"regulationMark,omitempty"`
	Legalities     map[string]string `json:"legalities,omitempty" yaml:"legalities,omitempty"`
	Images         Images            `json:"images" yaml:"images"`
}

// PrimaryType returns the first elemental type, or "".
func (c Card) PrimaryType() string {
	if len(c.Types) == 0 {
		return ""
	}
	return c.Types[0]
}

// FirstAttack returns the name of the first listed attack, or "".
func (c Card) FirstAttack() string {
	if len(c.Attacks) == 0 {
		return ""
	}
	return c.Attacks[0].Name
}

// HasSubtype reports whether the card carries the given subtype.
func (c Card) HasSubtype(sub string) bool {
	for _, s := range c.Subtypes {
		if strings.EqualFold(s, sub) {
			return true
		}
	}
	return false
}

// WithSetCode returns a copy of the card with its set code replaced.
func (c Card) WithSetCode(code string) Card {
	c.Set.Code = code
	return c
}

// Set is a catalog print set.
type Set struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Series      string `json:"series,omitempty"`
	Code        string `json:"code,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	Total       int    `json:"total,omitempty"`
}
