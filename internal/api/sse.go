package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// sseEvents streams status snapshots. Clients receive the current status
// immediately, then a fresh one after every change made through the API.
func (h *Handlers) sseEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	st, err := h.eng.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := h.events.Subscribe()
	defer sub.Close()
	h.log.Debug("api: event stream opened", "sub", sub.ID)

	sendSSE(w, flusher, st)
	for {
		select {
		case st, ok := <-sub.C:
			if !ok {
				return
			}
			sendSSE(w, flusher, st)
		case <-r.Context().Done():
			return
		}
	}
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// publish sends the current status to event subscribers after a mutation.
func (h *Handlers) publish(ctx context.Context) {
	if h.events.Len() == 0 {
		return
	}
	st, err := h.eng.Status(ctx)
	if err != nil {
		h.log.Warn("api: status for event stream failed", "err", err)
		return
	}
	h.events.Publish(st)
}
