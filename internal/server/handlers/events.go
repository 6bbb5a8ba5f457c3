package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// StreamEvents handles GET /jobs/{id}/events as a server-sent event stream.
// The stream ends after the terminal event. Subscribers attaching after
// completion receive exactly the terminal event.
func (h *Handlers) StreamEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.httpError(w, "Streaming unsupported", "", http.StatusInternalServerError)
		return
	}

	events, cancel, err := h.ui.Subscribe(r.Context(), id)
	if err != nil {
		h.writeManagerError(w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Error("failed to marshal event", "job_id", id, "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
