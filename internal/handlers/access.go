package handlers

import (
	"context"
	"errors"
	"net/http"

	"taskboard/internal/store"
)

// checkBoardAccess returns 0 when the caller may access the board, otherwise
// the HTTP status and message to reject with.
func (h *Handlers) checkBoardAccess(ctx context.Context, boardID string, write bool) (int, string, error) {
	ok, err := h.store.CanAccessBoard(ctx, boardID, userIDFromContext(ctx), write)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return http.StatusNotFound, "board not found", nil
		}
		return http.StatusInternalServerError, "internal server error", err
	}
	if !ok {
		return http.StatusForbidden, "You do not have access to this board", nil
	}
	return 0, "", nil
}

// requireBoardAccess writes the rejection and returns false when the caller
// may not access the board.
func (h *Handlers) requireBoardAccess(w http.ResponseWriter, r *http.Request, boardID string, write bool) bool {
	code, msg, err := h.checkBoardAccess(r.Context(), boardID, write)
	if err != nil {
		h.respondServerError(w, r, err)
		return false
	}
	if code != 0 {
		respondError(w, code, msg)
		return false
	}
	return true
}

// requireOwner allows only the board owner through.
func (h *Handlers) requireOwner(w http.ResponseWriter, r *http.Request, boardID string) bool {
	b, err := h.store.GetBoard(r.Context(), boardID)
	if err != nil {
		h.respondStoreError(w, r, err, "board")
		return false
	}
	if b.OwnerID != userIDFromContext(r.Context()) {
		respondError(w, http.StatusForbidden, "only the board owner can do this")
		return false
	}
	return true
}

// cardBoard resolves the board of a card and checks access to it.
func (h *Handlers) cardBoard(w http.ResponseWriter, r *http.Request, cardID string, write bool) (string, bool) {
	boardID, err := h.store.BoardIDForCard(r.Context(), cardID)
	if err != nil {
		h.respondStoreError(w, r, err, "card")
		return "", false
	}
	return boardID, h.requireBoardAccess(w, r, boardID, write)
}

// listBoard resolves the board of a list and checks access to it.
func (h *Handlers) listBoard(w http.ResponseWriter, r *http.Request, listID string, write bool) (string, bool) {
	list, err := h.store.GetList(r.Context(), listID)
	if err != nil {
		h.respondStoreError(w, r, err, "list")
		return "", false
	}
	return list.BoardID, h.requireBoardAccess(w, r, list.BoardID, write)
}
