// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/squareledger/events"
	"github.com/danielhkuo/squareledger/ledger"
	"github.com/danielhkuo/squareledger/middleware"
)

const heartbeatInterval = 15 * time.Second

type EventsHandler struct {
	store  *ledger.Store
	events *events.Client
}

func NewEventsHandler(store *ledger.Store, client *events.Client) *EventsHandler {
	return &EventsHandler{store: store, events: client}
}

// Stream handles GET /v1/wards/{id}/events
//
// The stream opens with a "stats" event carrying the current counters,
// followed by one "visit" event per committed visit.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	wardID := r.PathValue("id")

	// Subscribe before reading the snapshot so no commit falls in between.
	sub, err := h.events.SubscribeVisits(ctx, wardID)
	if err != nil {
		slog.Error("failed to subscribe to visit events", "ward_id", wardID, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Event stream unavailable")
		return
	}
	defer sub.Close()

	stats, err := h.store.Stats(ctx, wardID)
	if err != nil {
		writeLedgerError(w, r, err)
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSSE(w, "stats", stats); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		slog.Warn("event stream cannot flush", "ward_id", wardID, "error", err)
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeSSE(w, "visit", ev); err != nil {
				return
			}
		case err, ok := <-sub.Errors():
			if !ok {
				return
			}
			slog.Warn("skipping malformed visit event", "ward_id", wardID, "error", err)
			continue
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
