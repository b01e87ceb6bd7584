package handlers

import (
	"net/http"
	"strconv"

	"taskboard/internal/models"
)

// BoardDetail is a board with its lists, labels and members.
type BoardDetail struct {
	*models.Board
	Lists   []models.ListWithCards `json:"lists"`
	Labels  []models.Label         `json:"labels"`
	Members []models.BoardMember   `json:"members"`
}

type boardPayload struct {
	Title   string `json:"title"`
	Private *bool  `json:"private"`
}

// ListBoards returns the boards the caller owns or is a member of.
func (h *Handlers) ListBoards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	boards, err := h.store.ListBoardsForUser(ctx, userIDFromContext(ctx))
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, boards)
}

// CreateBoard creates a board owned by the caller.
func (h *Handlers) CreateBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload boardPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	b := &models.Board{
		Title:   payload.Title,
		Private: payload.Private == nil || *payload.Private,
		OwnerID: userIDFromContext(ctx),
	}
	if err := b.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateBoard(ctx, b); err != nil {
		h.respondServerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, b)
}

// GetBoard returns a board with its lists, labels and members.
func (h *Handlers) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}
	if !h.requireBoardAccess(w, r, id, false) {
		return
	}

	b, err := h.store.GetBoard(ctx, id)
	if err != nil {
		h.respondStoreError(w, r, err, "board")
		return
	}
	lists, err := h.store.ListListsWithCards(ctx, id)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}
	labels, err := h.store.ListLabels(ctx, id)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}
	members, err := h.store.ListBoardMembers(ctx, id)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, BoardDetail{Board: b, Lists: lists, Labels: labels, Members: members})
}

// UpdateBoard renames a board or changes its privacy.
func (h *Handlers) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}
	if !h.requireBoardAccess(w, r, id, true) {
		return
	}

	b, err := h.store.GetBoard(ctx, id)
	if err != nil {
		h.respondStoreError(w, r, err, "board")
		return
	}

	var payload boardPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Title != "" {
		b.Title = payload.Title
	}
	if payload.Private != nil {
		b.Private = *payload.Private
	}

	if err := b.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.UpdateBoard(ctx, b); err != nil {
		h.respondStoreError(w, r, err, "board")
		return
	}

	h.publish(ctx, id)
	respondJSON(w, http.StatusOK, b)
}

// DeleteBoard deletes a board. Only the owner may do this.
func (h *Handlers) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}
	if !h.requireOwner(w, r, id) {
		return
	}

	if err := h.store.DeleteBoard(ctx, id); err != nil {
		h.respondServerError(w, r, err)
		return
	}

	h.publish(ctx, id)
	w.WriteHeader(http.StatusNoContent)
}

// AddBoardMember grants a user access to a board.
func (h *Handlers) AddBoardMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	boardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}
	if !h.requireOwner(w, r, boardID) {
		return
	}

	var payload struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	m := &models.BoardMember{BoardID: boardID, UserID: payload.UserID, Role: payload.Role}
	if m.Role == "" {
		m.Role = models.RoleMember
	}
	if err := m.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.EnsureUser(ctx, &models.User{ID: m.UserID}); err != nil {
		h.respondServerError(w, r, err)
		return
	}
	if err := h.store.AddBoardMember(ctx, m); err != nil {
		h.respondServerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, m)
}

// RemoveBoardMember revokes a user's access to a board.
func (h *Handlers) RemoveBoardMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	boardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}
	userID, err := parseID(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if !h.requireOwner(w, r, boardID) {
		return
	}

	if err := h.store.RemoveBoardMember(ctx, boardID, userID); err != nil {
		h.respondServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BoardActivity returns recent activity on a board, newest first.
func (h *Handlers) BoardActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	boardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
	}

	if !h.requireBoardAccess(w, r, boardID, false) {
		return
	}

	activity, err := h.store.ListActivity(ctx, boardID, limit)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, activity)
}
