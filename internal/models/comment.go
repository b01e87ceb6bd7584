package models

import (
	"errors"
	"strings"
	"time"
)

// Comment is a note left on a card.
type Comment struct {
	ID        string    `json:"id"`
	CardID    string    `json:"cardId"`
	UserID    string    `json:"userId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks that the comment has valid field values.
func (c *Comment) Validate() error {
	if strings.TrimSpace(c.Body) == "" {
		return errors.New("body is required")
	}

	if len(c.Body) > 4096 {
		return errors.New("body must be 4096 characters or fewer")
	}

	if c.CardID == "" || c.UserID == "" {
		return errors.New("card_id and user_id are required")
	}

	return nil
}
