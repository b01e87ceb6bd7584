package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/auth"
	"taskboard/internal/models"
	"taskboard/internal/store"
)

type userKey struct{}

func withUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// userIDFromContext returns the authenticated caller set by Authenticate.
func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// RequestLogger logs each request with its status and duration.
func RequestLogger(logger log.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				entry := logger.WithFields(log.Fields{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status":      ww.Status(),
					"bytes":       ww.BytesWritten(),
					"duration":    time.Since(start),
					"request_id":  middleware.GetReqID(r.Context()),
					"remote_addr": r.RemoteAddr,
				})
				if ww.Status() >= http.StatusInternalServerError {
					entry.Warn("request failed")
					return
				}
				entry.Debug("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// Authenticate rejects requests without a valid session and records the
// caller as a user.
func (h *Handlers) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := h.auth.FromRequest(r)
		if err != nil {
			msg := "unauthorized"
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "authentication required"
			}
			h.logger.WithError(err).Debug("authentication failed")
			respondError(w, http.StatusUnauthorized, msg)
			return
		}

		ctx := r.Context()
		if err := h.store.EnsureUser(ctx, &models.User{ID: id.UserID, Email: id.Email, Name: id.Name}); err != nil {
			h.respondServerError(w, r, err)
			return
		}

		ctx = store.WithActor(withUserID(ctx, id.UserID), id.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
