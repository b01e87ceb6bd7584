// Package handlers implements the taskboard HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/auth"
	"taskboard/internal/events"
	"taskboard/internal/store"
)

// Authenticator resolves the caller of a request.
type Authenticator interface {
	FromRequest(r *http.Request) (auth.Identity, error)
}

// Options tune the handlers.
type Options struct {
	StreamCheckInterval     time.Duration
	StreamHeartbeatInterval time.Duration
	Logger                  log.FieldLogger
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	store  store.Store
	auth   Authenticator
	broker events.Broker
	logger log.FieldLogger

	streamCheck     time.Duration
	streamHeartbeat time.Duration
}

// New creates a new Handlers instance.
func New(s store.Store, a Authenticator, b events.Broker, opts Options) *Handlers {
	if opts.StreamCheckInterval <= 0 {
		opts.StreamCheckInterval = 3 * time.Second
	}
	if opts.StreamHeartbeatInterval <= 0 {
		opts.StreamHeartbeatInterval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	return &Handlers{
		store:           s,
		auth:            a,
		broker:          b,
		logger:          opts.Logger,
		streamCheck:     opts.StreamCheckInterval,
		streamHeartbeat: opts.StreamHeartbeatInterval,
	}
}

// parseID extracts an ID from URL parameters.
func parseID(r *http.Request, param string) (string, error) {
	id := chi.URLParam(r, param)
	if id == "" {
		return "", fmt.Errorf("missing %s", param)
	}
	return id, nil
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q", s)
	}
	return &t, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid json")
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, errorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func (h *Handlers) respondServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WithError(err).WithField("path", r.URL.Path).Error("internal server error")
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// respondStoreError maps store errors to HTTP responses.
func (h *Handlers) respondStoreError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, entity+" not found")
	case errors.Is(err, store.ErrInvalidMove), errors.Is(err, store.ErrInvalidOrder):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.respondServerError(w, r, err)
	}
}

// publish wakes the board's streams. A failed publish only delays them until
// their next check.
func (h *Handlers) publish(ctx context.Context, boardID string) {
	if h.broker == nil {
		return
	}
	if err := h.broker.Publish(ctx, boardID); err != nil {
		h.logger.WithError(err).WithField("board_id", boardID).Warn("failed to publish board update")
	}
}

// Health reports that the server is up.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
