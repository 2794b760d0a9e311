package log

// EventType enumerates all observable deck events.
type EventType int

const (
	EventCardAdded EventType = iota
	EventAddRejected
	EventCardRemoved
	EventDeckCleared
	EventDeckImported
	EventImportSkipped
	EventDeckExported
	EventSearchCompleted
	EventSearchFailed
	EventDeckRestored
)

func (e EventType) String() string {
	switch e {
	case EventCardAdded:
		return "CardAdded"
	case EventAddRejected:
		return "AddRejected"
	case EventCardRemoved:
		return "CardRemoved"
	case EventDeckCleared:
		return "DeckCleared"
	case EventDeckImported:
		return "DeckImported"
	case EventImportSkipped:
		return "ImportSkipped"
	case EventDeckExported:
		return "DeckExported"
	case EventSearchCompleted:
		return "SearchCompleted"
	case EventSearchFailed:
		return "SearchFailed"
	case EventDeckRestored:
		return "DeckRestored"
	default:
		return "Unknown"
	}
}

// MarshalText renders the type by name in JSON payloads.
func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// DeckEvent represents a single observable event in a deck-building session.
type DeckEvent struct {
	Seq     int       `json:"seq"`            // monotonic sequence number
	Type    EventType `json:"type"`           // event type
	Card    string    `json:"card,omitempty"` // card name (if applicable)
	CardID  string    `json:"cardId,omitempty"`
	Total   int       `json:"total"`   // deck size after the event
	Details string    `json:"details"` // human-readable detail string
}
