package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	domainstats "github.com/pantrykit/pantry-ui-api/internal/domain/stats"
	"github.com/pantrykit/pantry-ui-api/internal/stats"
)

// SnapshotFallback reads the last persisted snapshot when the in-memory
// cache has not refreshed yet, e.g. right after a restart.
type SnapshotFallback interface {
	Load(ctx context.Context) (domainstats.Snapshot, bool, error)
}

// StatsHandlers provides HTTP handlers for dashboard statistics.
type StatsHandlers struct {
	Cache    *stats.Cache
	Fallback SnapshotFallback // optional
	Logger   *slog.Logger
}

func (h *StatsHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Latest returns the current statistics snapshot.
// GET /api/stats.
func (h *StatsHandlers) Latest(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.Cache.Latest()
	if !ok && h.Fallback != nil {
		persisted, found, err := h.Fallback.Load(r.Context())
		if err != nil {
			h.logger().WarnContext(r.Context(), "loading persisted snapshot failed", "error", err)
		} else if found {
			snap = persisted
			ok = true
		}
	}
	if !ok {
		snap = domainstats.ZeroSnapshot()
	}
	WriteJSON(w, http.StatusOK, snap)
}

// Stream pushes statistics snapshots over server-sent events.
// GET /api/stats/stream.
// Subscribing starts the shared poll loop when no other stream is open;
// closing the last stream stops it.
func (h *StatsHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	updates := h.Cache.Subscribe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case snap, open := <-updates:
			if !open {
				return
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				h.logger().ErrorContext(ctx, "marshaling snapshot failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
