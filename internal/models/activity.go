package models

import "time"

// Activity actions recorded by the store.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionMoved    = "moved"
	ActionAssigned = "assigned"
	ActionComment  = "commented"
	ActionImported = "imported"
)

// Activity is an entry in a board's audit trail.
type Activity struct {
	ID         string    `json:"id"`
	BoardID    string    `json:"boardId"`
	UserID     string    `json:"userId"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
