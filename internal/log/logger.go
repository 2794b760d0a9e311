package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// EventLogger is the interface for logging deck events.
type EventLogger interface {
	Log(event DeckEvent)
	Events() []DeckEvent
}

// --- MemoryLogger: stores events in memory for test assertions and draining ---

type MemoryLogger struct {
	mu     sync.Mutex
	events []DeckEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event DeckEvent) {
	l.record(event)
}

func (l *MemoryLogger) record(event DeckEvent) DeckEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
	return event
}

func (l *MemoryLogger) Events() []DeckEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]DeckEvent(nil), l.events...)
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []DeckEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []DeckEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Since returns the events logged after sequence number seq.
func (l *MemoryLogger) Since(seq int) []DeckEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []DeckEvent
	for _, e := range l.events {
		if e.Seq > seq {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() DeckEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return DeckEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event DeckEvent) {
	event = l.MemoryLogger.record(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- Formatting ---

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e DeckEvent) string {
	return fmt.Sprintf("#%-3d %-15s | %s", e.Seq, e.Type, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []DeckEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewCardAddedEvent(cardID, cardName string, count, total int) DeckEvent {
	return DeckEvent{
		Type:    EventCardAdded,
		Card:    cardName,
		CardID:  cardID,
		Total:   total,
		Details: fmt.Sprintf("Added %s (%s), now %d in deck, %d total", cardName, cardID, count, total),
	}
}

func NewAddRejectedEvent(cardID, cardName string, copies, total int) DeckEvent {
	return DeckEvent{
		Type:    EventAddRejected,
		Card:    cardName,
		CardID:  cardID,
		Total:   total,
		Details: fmt.Sprintf("Cannot add %s: deck already holds %d copies", cardName, copies),
	}
}

func NewCardRemovedEvent(cardID, cardName string, count, total int) DeckEvent {
	return DeckEvent{
		Type:    EventCardRemoved,
		Card:    cardName,
		CardID:  cardID,
		Total:   total,
		Details: fmt.Sprintf("Removed %s (%s), %d left in deck, %d total", cardName, cardID, count, total),
	}
}

func NewDeckClearedEvent() DeckEvent {
	return DeckEvent{
		Type:    EventDeckCleared,
		Details: "Deck cleared",
	}
}

func NewDeckImportedEvent(resolved, parsed, skipped, total int) DeckEvent {
	return DeckEvent{
		Type:    EventDeckImported,
		Total:   total,
		Details: fmt.Sprintf("Imported %d of %d lines (%d skipped), %d cards", resolved, parsed, skipped, total),
	}
}

func NewImportSkippedEvent(line int, text, reason string) DeckEvent {
	return DeckEvent{
		Type:    EventImportSkipped,
		Details: fmt.Sprintf("Line %d %q: %s", line, text, reason),
	}
}

func NewDeckExportedEvent(entries, total int) DeckEvent {
	return DeckEvent{
		Type:    EventDeckExported,
		Total:   total,
		Details: fmt.Sprintf("Exported %d entries, %d cards", entries, total),
	}
}

func NewSearchCompletedEvent(query string, results int) DeckEvent {
	return DeckEvent{
		Type:    EventSearchCompleted,
		Details: fmt.Sprintf("Search %q matched %d cards", query, results),
	}
}

func NewSearchFailedEvent(query string, err error) DeckEvent {
	return DeckEvent{
		Type:    EventSearchFailed,
		Details: fmt.Sprintf("Search %q failed: %v", query, err),
	}
}

func NewDeckRestoredEvent(entries, total int) DeckEvent {
	return DeckEvent{
		Type:    EventDeckRestored,
		Total:   total,
		Details: fmt.Sprintf("Restored deck with %d entries, %d cards", entries, total),
	}
}
