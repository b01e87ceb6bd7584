package handlers

import (
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/models"
	"taskboard/internal/store"
)

// BoardListsResponse is the body of GET /api/boards/{id}/lists.
type BoardListsResponse struct {
	Lists     []models.ListWithCards `json:"lists"`
	Timestamp int64                  `json:"timestamp"`
}

// MoveCardRequest is the body of POST /api/cards/{id}/move.
type MoveCardRequest struct {
	ListID   string `json:"listId"`
	Position *int   `json:"position"`
}

// MoveCardResponse is the body returned by POST /api/cards/{id}/move.
type MoveCardResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func setNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// BoardLists returns the board's lists with their cards and labels. Responses
// are never cached; pollers rely on them to detect changes.
func (h *Handlers) BoardLists(w http.ResponseWriter, r *http.Request) {
	setNoStore(w)

	boardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}
	if !h.requireBoardAccess(w, r, boardID, false) {
		return
	}

	lists, err := h.store.ListListsWithCards(r.Context(), boardID)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, BoardListsResponse{Lists: lists, Timestamp: time.Now().UnixMilli()})
}

// MoveCard moves a card to a position within a list, renumbering the source
// and target lists.
func (h *Handlers) MoveCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fail := func(code int, msg string) {
		respondJSON(w, code, MoveCardResponse{Error: msg})
	}

	cardID, err := parseID(r, "id")
	if err != nil {
		fail(http.StatusBadRequest, "invalid card id")
		return
	}

	var req MoveCardRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(http.StatusBadRequest, err.Error())
		return
	}
	if req.ListID == "" {
		fail(http.StatusBadRequest, "listId is required")
		return
	}
	if req.Position == nil || *req.Position < 0 {
		fail(http.StatusBadRequest, "position must be a non-negative integer")
		return
	}

	boardID, err := h.store.BoardIDForCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			fail(http.StatusNotFound, "Card not found")
			return
		}
		h.respondServerError(w, r, err)
		return
	}

	code, msg, err := h.checkBoardAccess(ctx, boardID, true)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}
	if code != 0 {
		fail(code, msg)
		return
	}

	if err := h.store.MoveCard(ctx, cardID, req.ListID, *req.Position); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			fail(http.StatusNotFound, "List not found")
		case errors.Is(err, store.ErrInvalidMove):
			fail(http.StatusBadRequest, "Cannot move card to a list on another board")
		default:
			h.logger.WithError(err).WithField("card_id", cardID).Error("failed to move card")
			fail(http.StatusInternalServerError, "Failed to move card")
		}
		return
	}

	h.logger.WithFields(log.Fields{
		"card_id":  cardID,
		"list_id":  req.ListID,
		"position": *req.Position,
	}).Debug("card moved")
	h.publish(ctx, boardID)
	respondJSON(w, http.StatusOK, MoveCardResponse{Success: true})
}
