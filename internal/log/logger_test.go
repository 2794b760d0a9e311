package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLoggerSequence(t *testing.T) {
	l := NewMemoryLogger()
	l.Log(NewCardAddedEvent("sv1-1", "Pikachu", 1, 1))
	l.Log(NewAddRejectedEvent("sv1-1", "Pikachu", 4, 4))
	l.Log(NewCardRemovedEvent("sv1-1", "Pikachu", 0, 0))

	events := l.Events()
	require.Len(t, events, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{events[0].Seq, events[1].Seq, events[2].Seq})
	assert.Len(t, l.EventsOfType(EventAddRejected), 1)
	assert.Equal(t, EventCardRemoved, l.LastEvent().Type)

	since := l.Since(1)
	require.Len(t, since, 2)
	assert.Equal(t, 2, since[0].Seq)
}

func TestTextLoggerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf)
	l.Log(NewDeckRestoredEvent(3, 12))
	l.Log(NewImportSkippedEvent(8, "4 Boost Energy PRC 122", "unknown set code PRC"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "#1   DeckRestored    | Restored deck with 3 entries, 12 cards", lines[0])
	assert.Contains(t, lines[1], "ImportSkipped")
	assert.Contains(t, lines[1], "unknown set code PRC")
	assert.Len(t, l.Events(), 2)
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "SearchFailed", EventSearchFailed.String())
	assert.Equal(t, "Unknown", EventType(99).String())
}
