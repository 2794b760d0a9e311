package deck

import (
	"context"
	"fmt"
	"strings"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
)

// unknownSetCode is written when a card's set code cannot be resolved.
const unknownSetCode = "?"

// SetCodes resolves a set id to its set code.
type SetCodes interface {
	Code(ctx context.Context, setID string) string
}

// Export renders d as a deck list:
//
//	Pokémon: <entries>
//	<count> <name> <set code> <number>
//	...
//
//	Trainer: <entries>
//	...
//
//	Energy: <entries>
//	...
//
//	Total Cards: <cards>
//
// Set codes missing from the card records are looked up through codes, which
// may be nil.
func Export(ctx context.Context, d Deck, codes SetCodes) string {
	lines := make(map[catalog.Supertype][]string, len(Sections))
	for _, e := range d.Entries() {
		sec := Section(e.Card)
		if sec == catalog.SupertypeUnknown {
			continue
		}
		lines[sec] = append(lines[sec], fmt.Sprintf("%d %s %s %s",
			e.Count, e.Card.Name, setCode(ctx, e.Card, codes), e.Card.Number))
	}

	var b strings.Builder
	for i, sec := range Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s: %d\n", sec, len(lines[sec]))
		b.WriteString(strings.Join(lines[sec], "\n"))
	}
	fmt.Fprintf(&b, "\n\nTotal Cards: %d", d.Total())
	return b.String()
}

func setCode(ctx context.Context, c catalog.Card, codes SetCodes) string {
	if c.Set.Code != "" && c.Set.Code != unknownSetCode {
		return c.Set.Code
	}
	if codes != nil && c.Set.ID != "" {
		if code := codes.Code(ctx, c.Set.ID); code != "" {
			return code
		}
	}
	return unknownSetCode
}
