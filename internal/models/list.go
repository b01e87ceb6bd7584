package models

import (
	"errors"
	"strings"
	"time"
)

// List is an ordered column of cards within a board.
type List struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"boardId"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks that the list has valid field values.
func (l *List) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return errors.New("title is required")
	}

	if l.BoardID == "" {
		return errors.New("board_id is required")
	}

	if l.Position < 0 {
		return errors.New("position must not be negative")
	}

	return nil
}

// ListWithCards is a list together with its ordered cards, the read model
// served to board viewers.
type ListWithCards struct {
	List
	Cards []CardWithLabels `json:"cards"`
}
