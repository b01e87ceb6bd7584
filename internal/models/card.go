package models

import (
	"errors"
	"strings"
	"time"
)

// Card is a task unit within a list.
type Card struct {
	ID          string     `json:"id"`
	ListID      string     `json:"listId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Validate checks that the card has valid field values.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("title is required")
	}

	if c.ListID == "" {
		return errors.New("list_id is required")
	}

	if len(c.Title) > 512 {
		return errors.New("title must be 512 characters or fewer")
	}

	if c.Position < 0 {
		return errors.New("position must not be negative")
	}

	return nil
}

// IsOverdue returns true if the card has a due date that has passed.
func (c *Card) IsOverdue() bool {
	if c.DueDate == nil {
		return false
	}
	return c.DueDate.Before(time.Now())
}

// CardWithLabels is a card with its labels and assigned member ids.
type CardWithLabels struct {
	Card
	Labels    []Label  `json:"labels"`
	MemberIDs []string `json:"memberIds,omitempty"`
}
