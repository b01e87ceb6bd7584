package handlers

import (
	"net/http"

	"taskboard/internal/models"
)

// CreateList appends a list to a board.
func (h *Handlers) CreateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	boardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}
	if !h.requireBoardAccess(w, r, boardID, true) {
		return
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	list := &models.List{BoardID: boardID, Title: payload.Title}
	if err := list.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.CreateList(ctx, list); err != nil {
		h.respondServerError(w, r, err)
		return
	}

	h.publish(ctx, boardID)
	respondJSON(w, http.StatusCreated, list)
}

// UpdateList renames a list.
func (h *Handlers) UpdateList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}

	list, err := h.store.GetList(ctx, id)
	if err != nil {
		h.respondStoreError(w, r, err, "list")
		return
	}
	if !h.requireBoardAccess(w, r, list.BoardID, true) {
		return
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	list.Title = payload.Title

	if err := list.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.UpdateList(ctx, list); err != nil {
		h.respondStoreError(w, r, err, "list")
		return
	}

	h.publish(ctx, list.BoardID)
	respondJSON(w, http.StatusOK, list)
}

// DeleteList deletes a list and its cards.
func (h *Handlers) DeleteList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	boardID, ok := h.listBoard(w, r, id, true)
	if !ok {
		return
	}

	if err := h.store.DeleteList(ctx, id); err != nil {
		h.respondStoreError(w, r, err, "list")
		return
	}

	h.publish(ctx, boardID)
	w.WriteHeader(http.StatusNoContent)
}

// ReorderLists updates the order of lists within a board.
func (h *Handlers) ReorderLists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	boardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}
	if !h.requireBoardAccess(w, r, boardID, true) {
		return
	}

	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.ReorderLists(ctx, boardID, payload.IDs); err != nil {
		h.respondStoreError(w, r, err, "list")
		return
	}

	h.publish(ctx, boardID)
	w.WriteHeader(http.StatusOK)
}
