package models

import (
	"errors"
	"strings"
	"time"
)

// Board is the top-level container of lists.
type Board struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Private   bool      `json:"private"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks that the board has valid field values.
func (b *Board) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return errors.New("title is required")
	}

	if len(b.Title) > 128 {
		return errors.New("title must be 128 characters or fewer")
	}

	if b.OwnerID == "" {
		return errors.New("owner_id is required")
	}

	return nil
}

// Member roles on a board.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// BoardMember grants a user access to a board.
type BoardMember struct {
	BoardID string `json:"boardId"`
	UserID  string `json:"userId"`
	Role    string `json:"role"`
}

// Validate checks that the membership has valid field values.
func (m *BoardMember) Validate() error {
	if m.BoardID == "" || m.UserID == "" {
		return errors.New("board_id and user_id are required")
	}

	if m.Role != RoleAdmin && m.Role != RoleMember {
		return errors.New("role must be 'admin' or 'member'")
	}

	return nil
}

// User is an authenticated principal, keyed by the session subject.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
