package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/emrgen/folio/internal/service"
	"github.com/sirupsen/logrus"
)

// previewEvents streams the resolved preview of a session as server-sent events.
// The first event carries the current state, including the empty state.
func (h *Handler) previewEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming unsupported"))
		return
	}

	id := r.PathValue("id")
	ctx := r.Context()

	// holds at most the latest view; older undelivered views are dropped
	updates := make(chan service.PreviewView, 1)
	sub := h.svc.WatchPreview(ctx, id, func(pv service.PreviewView) {
		select {
		case <-updates:
		default:
		}
		updates <- pv
	})
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case pv := <-updates:
			data, err := json.Marshal(pv)
			if err != nil {
				logrus.Errorf("preview %s: encode event: %v", id, err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: preview\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
