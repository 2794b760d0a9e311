package deck

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterkuimelis/tcgdeck/internal/catalog"
	"github.com/peterkuimelis/tcgdeck/internal/logging"
	"github.com/peterkuimelis/tcgdeck/internal/metrics"
)

// DiagnosticKind classifies a skipped or adjusted import line.
type DiagnosticKind string

const (
	UnresolvableSetCode DiagnosticKind = "unresolvable_set_code"
	UnresolvableCard    DiagnosticKind = "unresolvable_card"
	CopiesCapped        DiagnosticKind = "copies_capped"
)

// Diagnostic reports a line the import could not take as written.
type Diagnostic struct {
	Line   int            `json:"line"`
	Text   string         `json:"text"`
	Kind   DiagnosticKind `json:"kind"`
	Reason string         `json:"reason"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s (%q)", d.Line, d.Reason, d.Text)
}

// ImportResult is the outcome of parsing a deck list.
type ImportResult struct {
	Deck        Deck         `json:"deck"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	// Parsed counts card lines; Resolved counts those matched to a card.
	Parsed   int `json:"parsed"`
	Resolved int `json:"resolved"`
}

// SetIndex resolves set codes to set ids.
type SetIndex interface {
	SetID(ctx context.Context, code string) (string, bool, error)
}

// CardSearcher runs catalog queries.
type CardSearcher interface {
	SearchCards(ctx context.Context, q string, page, pageSize int) ([]catalog.Card, error)
}

// Resolver turns deck list lines into catalog cards.
type Resolver struct {
	Sets  SetIndex
	Cards CardSearcher
}

// ListLine is one parsed card line of a deck list.
type ListLine struct {
	Line    int
	Text    string
	Section catalog.Supertype
	Count   int
	Name    string
	SetCode string
	Number  string
}

// ParseList splits a deck list into card lines. Section headers switch the
// current section and "Total Cards" ends the list. Lines that are not card
// lines are skipped.
func ParseList(text string) []ListLine {
	var (
		out     []ListLine
		section catalog.Supertype
	)
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if sec, ok := sectionHeader(line); ok {
			section = sec
			continue
		}
		if len(line) >= len("Total Cards") && strings.EqualFold(line[:len("Total Cards")], "Total Cards") {
			break
		}

		l, ok := parseCardLine(line)
		if !ok {
			continue
		}
		l.Line = i + 1
		l.Section = section
		out = append(out, l)
	}
	return out
}

func sectionHeader(line string) (catalog.Supertype, bool) {
	switch {
	case strings.HasPrefix(line, "Pokémon"), strings.HasPrefix(line, "Pokemon"):
		return catalog.SupertypePokemon, true
	case strings.HasPrefix(line, "Trainer"):
		return catalog.SupertypeTrainer, true
	case strings.HasPrefix(line, "Energy"):
		return catalog.SupertypeEnergy, true
	}
	return catalog.SupertypeUnknown, false
}

// parseCardLine reads "<count> <name> <set code> <number>". The name is
// everything between the count and the last two tokens.
func parseCardLine(line string) (ListLine, bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return ListLine{}, false
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return ListLine{}, false
	}
	last := len(fields) - 1
	return ListLine{
		Text:    line,
		Count:   n,
		Name:    strings.Join(fields[1:last-1], " "),
		SetCode: fields[last-1],
		Number:  fields[last],
	}, true
}

// Import parses a deck list and resolves every line against the catalog.
// Lines that cannot be resolved are skipped with a diagnostic. Counts of the
// same card are merged and capped at MaxCopies unless the card is a basic
// energy. A line whose card lookup fails is skipped like an unknown card.
// An error means the set directory could not be loaded, or every line
// failed to reach the catalog; no partial result is returned then.
func Import(ctx context.Context, text string, r Resolver) (ImportResult, error) {
	res := ImportResult{Deck: Deck{}}
	lines := ParseList(text)
	res.Parsed = len(lines)

	diag := func(l ListLine, kind DiagnosticKind, format string, args ...any) {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Line:   l.Line,
			Text:   l.Text,
			Kind:   kind,
			Reason: fmt.Sprintf(format, args...),
		})
		metrics.ImportDiagnostics.WithLabelValues(string(kind)).Inc()
	}

	var lookupErr error
	for _, l := range lines {
		setID, ok, err := r.Sets.SetID(ctx, l.SetCode)
		if err != nil {
			return ImportResult{}, fmt.Errorf("resolve set code %s: %w", l.SetCode, err)
		}
		if !ok {
			diag(l, UnresolvableSetCode, "unknown set code %s", l.SetCode)
			continue
		}

		card, found, err := findCard(ctx, r.Cards, setID, l)
		if err != nil {
			lookupErr = fmt.Errorf("resolve %s %s: %w", l.SetCode, l.Number, err)
			logging.Warn().Err(err).Int("line", l.Line).Msg("deck list card lookup failed")
			diag(l, UnresolvableCard, "catalog lookup for %s %s failed", l.SetCode, l.Number)
			continue
		}
		if !found {
			diag(l, UnresolvableCard, "no card %s numbered %s in set %s", l.Name, l.Number, setID)
			continue
		}
		res.Resolved++

		e, ok := res.Deck[card.ID]
		if !ok {
			e = Entry{Card: card}
		}
		e.Count += l.Count
		if !IsBasicEnergy(card) && e.Count > MaxCopies {
			diag(l, CopiesCapped, "%s capped at %d copies", card.Name, MaxCopies)
			e.Count = MaxCopies
		}
		res.Deck[card.ID] = e
	}
	if res.Resolved == 0 && lookupErr != nil {
		return ImportResult{}, lookupErr
	}
	return res, nil
}

// findCard looks a line up by set and number, then by set and name. The
// first match in catalog order wins.
func findCard(ctx context.Context, cards CardSearcher, setID string, l ListLine) (catalog.Card, bool, error) {
	queries := []string{
		fmt.Sprintf("set.id:%s number:%s", setID, l.Number),
		fmt.Sprintf("set.id:%s name:%q", setID, l.Name),
	}
	for _, q := range queries {
		found, err := cards.SearchCards(ctx, q, 1, 1)
		if err != nil {
			return catalog.Card{}, false, err
		}
		if len(found) > 0 {
			return found[0], true, nil
		}
	}
	return catalog.Card{}, false, nil
}
