package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const sseKeepAliveInterval = 30 * time.Second

// EventStreamHandler handles GET /events. It holds the connection open and
// relays every committed ledger operation as a server-sent event. Periodic
// comment lines keep idle proxies from dropping the connection.
func (h *HandlerProvider) EventStreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.hub.Subscribe(r.Context())
	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			_, err := fmt.Fprint(w, ": keep-alive\n\n")
			if err != nil {
				return
			}
			flusher.Flush()
		case ev, open := <-ch:
			if !open {
				return
			}

			payload, err := json.Marshal(ev)
			if err != nil {
				slog.Error("failed to encode event", "error", err)
				continue
			}

			_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Op, payload)
			if err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
