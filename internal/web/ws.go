package web

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"

	"github.com/peterkuimelis/tcgdeck/internal/logging"
	"github.com/peterkuimelis/tcgdeck/internal/search"
)

const wsWriteTimeout = 10 * time.Second

// handleWebSocket streams the search state: the current state on connect,
// then every change until the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		logging.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer wsConn.CloseNow()

	// Incoming messages are ignored; the context ends when the client closes.
	ctx := wsConn.CloseRead(r.Context())

	states, cancel := s.b.Subscribe()
	defer cancel()

	if err := writeState(ctx, wsConn, s.b.SearchState()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			wsConn.Close(websocket.StatusNormalClosure, "")
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			if err := writeState(ctx, wsConn, st); err != nil {
				logging.Debug().Err(err).Msg("websocket write")
				return
			}
		}
	}
}

func writeState(ctx context.Context, c *websocket.Conn, st search.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, data)
}
