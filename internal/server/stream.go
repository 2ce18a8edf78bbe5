package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hailam/chessarena/internal/game"
)

// keepaliveInterval spaces comment frames that keep proxies from closing
// an otherwise quiet stream.
const keepaliveInterval = 15 * time.Second

// handleStream serves the per-session SSE stream. A late subscriber first
// receives one state frame with the full snapshot; after that it sees a
// strict prefix of the game's emitted event sequence, in order.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	tok := token(r)
	if tok == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.broadcaster.Subscribe(tok)
	defer s.broadcaster.Unsubscribe(tok, ch)

	if g, ok := s.registry.Game(tok); ok {
		if err := writeFrame(w, flusher, game.KindState, g.State()); err != nil {
			return
		}
	}

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				// Pruned by the broadcaster for falling behind.
				s.logger.Debug("subscriber dropped", zap.String("token", tok))
				return
			}
			if err := writeFrame(w, flusher, ev.Kind, ev.Data); err != nil {
				return
			}
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeFrame emits one SSE frame: "event: <kind>\ndata: <json>\n\n".
func writeFrame(w http.ResponseWriter, flusher http.Flusher, kind string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", kind, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
