package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		term string
		f    Filters
		want string
	}{
		{"nothing", "", Filters{}, ""},
		{"whitespace term", "   ", Filters{CardType: "all"}, ""},
		{"plain term", "Pikachu", Filters{}, "name:Pikachu"},
		{"spaced term quoted", " Mr. Mime ", Filters{}, `name:"Mr. Mime"`},
		{"standard", "Pikachu", Filters{Format: "standard"},
			"name:Pikachu AND (regulationMark:G OR regulationMark:H OR regulationMark:I)"},
		{"expanded", "Pikachu", Filters{Format: "expanded"}, "name:Pikachu AND legalities.expanded:legal"},
		{"basic energy exception", "Basic Energy", Filters{Format: "standard"}, `name:"Basic Energy"`},
		{"basic exception with energy type", "basic", Filters{Format: "standard", CardType: "Energy"},
			`name:basic AND supertype:"Energy"`},
		{"basic not excepted for pokemon", "basic", Filters{Format: "standard", CardType: "Pokémon"},
			`name:basic AND (regulationMark:G OR regulationMark:H OR regulationMark:I) AND supertype:"Pokémon"`},
		{"all filters", "", Filters{CardType: "Pokémon", SubType: "Stage 1", PokemonType: "Fire"},
			`supertype:"Pokémon" AND subtypes:"Stage 1" AND types:"Fire"`},
		{"type ignored for trainers", "", Filters{CardType: "Trainer", PokemonType: "Fire"}, `supertype:"Trainer"`},
		{"type ignored when card type unset", "", Filters{PokemonType: "Fire"}, ""},
		{"all is unset", "Boss", Filters{CardType: "All"}, "name:Boss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Build(tt.term, tt.f, Options{}))
		})
	}
}

func TestBuildCustomRegulationMarks(t *testing.T) {
	got := Build("", Filters{Format: "Standard"}, Options{RegulationMarks: []string{"H", "I", "J"}})
	assert.Equal(t, "(regulationMark:H OR regulationMark:I OR regulationMark:J)", got)
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("Name-Desc")
	require.NoError(t, err)
	assert.Equal(t, SortNameDesc, s)

	s, err = ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortNone, s)

	_, err = ParseSort("price")
	assert.Error(t, err)
}
