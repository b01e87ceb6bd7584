package handlers

import (
	"context"
	"net/http"

	"taskboard/internal/models"
)

type cardPayload struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
}

// CreateCard appends a card to a list.
func (h *Handlers) CreateCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid list id")
		return
	}
	boardID, ok := h.listBoard(w, r, listID, true)
	if !ok {
		return
	}

	var payload cardPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	card := &models.Card{ListID: listID, Title: payload.Title}
	if err := applyCardPayload(card, payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := card.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.CreateCard(ctx, card); err != nil {
		h.respondStoreError(w, r, err, "list")
		return
	}

	h.publish(ctx, boardID)
	respondJSON(w, http.StatusCreated, card)
}

// UpdateCard updates a card's title, description or due date. Fields absent
// from the payload are left unchanged; an empty dueDate clears it.
func (h *Handlers) UpdateCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}
	boardID, ok := h.cardBoard(w, r, id, true)
	if !ok {
		return
	}

	card, err := h.store.GetCard(ctx, id)
	if err != nil {
		h.respondStoreError(w, r, err, "card")
		return
	}

	var payload cardPayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Title != "" {
		card.Title = payload.Title
	}
	if err := applyCardPayload(card, payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := card.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateCard(ctx, card); err != nil {
		h.respondStoreError(w, r, err, "card")
		return
	}

	h.publish(ctx, boardID)
	respondJSON(w, http.StatusOK, card)
}

func applyCardPayload(card *models.Card, payload cardPayload) error {
	if payload.Description != nil {
		card.Description = *payload.Description
	}
	if payload.DueDate != nil {
		due, err := parseDate(*payload.DueDate)
		if err != nil {
			return err
		}
		card.DueDate = due
	}
	return nil
}

// DeleteCard deletes a card.
func (h *Handlers) DeleteCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}
	boardID, ok := h.cardBoard(w, r, id, true)
	if !ok {
		return
	}

	if err := h.store.DeleteCard(ctx, id); err != nil {
		h.respondStoreError(w, r, err, "card")
		return
	}

	h.publish(ctx, boardID)
	w.WriteHeader(http.StatusNoContent)
}

// ListLabels returns a board's labels.
func (h *Handlers) ListLabels(w http.ResponseWriter, r *http.Request) {
	boardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid board id")
		return
	}
	if !h.requireBoardAccess(w, r, boardID, false) {
		return
	}

	labels, err := h.store.ListLabels(r.Context(), boardID)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, labels)
}

// CreateLabel defines a label on a board.
func (h *Handlers) CreateLabel(w http.ResponseWriter, r *http.Request) {
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
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	label := &models.Label{BoardID: boardID, Name: payload.Name, Color: payload.Color}
	if err := label.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.CreateLabel(ctx, label); err != nil {
		h.respondServerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, label)
}

// AddCardLabel attaches a label to a card.
func (h *Handlers) AddCardLabel(w http.ResponseWriter, r *http.Request) {
	h.cardRelation(w, r, "labelID", h.store.AddCardLabel)
}

// RemoveCardLabel detaches a label from a card.
func (h *Handlers) RemoveCardLabel(w http.ResponseWriter, r *http.Request) {
	h.cardRelation(w, r, "labelID", h.store.RemoveCardLabel)
}

// AssignCardMember assigns a board member to a card.
func (h *Handlers) AssignCardMember(w http.ResponseWriter, r *http.Request) {
	h.cardRelation(w, r, "userID", h.store.AssignCardMember)
}

// UnassignCardMember removes a member from a card.
func (h *Handlers) UnassignCardMember(w http.ResponseWriter, r *http.Request) {
	h.cardRelation(w, r, "userID", h.store.UnassignCardMember)
}

// cardRelation applies a change to a card association named by the URL
// parameter param.
func (h *Handlers) cardRelation(w http.ResponseWriter, r *http.Request, param string, apply func(ctx context.Context, cardID, otherID string) error) {
	ctx := r.Context()

	cardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}
	otherID, err := parseID(r, param)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid "+param)
		return
	}
	boardID, ok := h.cardBoard(w, r, cardID, true)
	if !ok {
		return
	}

	if err := apply(ctx, cardID, otherID); err != nil {
		h.respondStoreError(w, r, err, "card")
		return
	}

	h.publish(ctx, boardID)
	w.WriteHeader(http.StatusNoContent)
}

// ListComments returns a card's comments, oldest first.
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	cardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}
	if _, ok := h.cardBoard(w, r, cardID, false); !ok {
		return
	}

	comments, err := h.store.ListComments(r.Context(), cardID)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, comments)
}

// CreateComment adds a comment by the caller to a card.
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid card id")
		return
	}
	if _, ok := h.cardBoard(w, r, cardID, true); !ok {
		return
	}

	var payload struct {
		Body string `json:"body"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	comment := &models.Comment{CardID: cardID, UserID: userIDFromContext(ctx), Body: payload.Body}
	if err := comment.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.CreateComment(ctx, comment); err != nil {
		h.respondStoreError(w, r, err, "card")
		return
	}

	respondJSON(w, http.StatusCreated, comment)
}
