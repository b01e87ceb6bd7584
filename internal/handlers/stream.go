package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskboard/internal/board"
)

// writeEvent writes one named server-sent event.
func writeEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// BoardStream pushes board_update events whenever the board's layout
// fingerprint changes. The board is checked on a fixed interval and whenever
// a change is published for it; a heartbeat keeps intermediaries from closing
// the connection. The stream ends when the client disconnects.
func (h *Handlers) BoardStream(w http.ResponseWriter, r *http.Request) {
	boardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}
	if !h.requireBoardAccess(w, r, boardID, false) {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "stream unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	logger := h.logger.WithField("board_id", boardID)

	var signals <-chan struct{}
	if h.broker != nil {
		var unsubscribe func()
		signals, unsubscribe = h.broker.Subscribe(ctx, boardID)
		defer unsubscribe()
	}

	if err := writeEvent(w, "connection", map[string]any{
		"boardId":   boardID,
		"timestamp": time.Now().UnixMilli(),
	}); err != nil {
		return
	}
	flusher.Flush()

	var (
		last board.Fingerprint
		sent bool
	)
	check := func() error {
		lists, err := h.store.ListListsWithCards(ctx, boardID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.WithError(err).Warn("stream check failed")
			return writeEvent(w, "error", map[string]string{"message": "Failed to load board"})
		}

		fp := board.ComputeFingerprint(board.NewSnapshot(lists))
		if sent && fp == last {
			return nil
		}
		last, sent = fp, true
		return writeEvent(w, "board_update", BoardListsResponse{Lists: lists, Timestamp: time.Now().UnixMilli()})
	}

	if err := check(); err != nil {
		return
	}
	flusher.Flush()

	checkTicker := time.NewTicker(h.streamCheck)
	defer checkTicker.Stop()
	heartbeat := time.NewTicker(h.streamHeartbeat)
	defer heartbeat.Stop()

	logger.Debug("board stream opened")
	for {
		var err error
		select {
		case <-ctx.Done():
			logger.Debug("board stream closed")
			return
		case <-checkTicker.C:
			err = check()
		case <-signals:
			err = check()
		case <-heartbeat.C:
			err = writeEvent(w, "heartbeat", map[string]int64{"timestamp": time.Now().UnixMilli()})
		}
		if err != nil {
			return
		}
		flusher.Flush()
	}
}
