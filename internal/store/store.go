package store

import (
	"context"
	"errors"

	"taskboard/internal/models"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidMove is returned when a card is moved to a list on another board.
	ErrInvalidMove = errors.New("invalid move")
	// ErrInvalidOrder is returned when a list order is not a permutation of
	// the board's lists.
	ErrInvalidOrder = errors.New("invalid list order")
)

// Store defines the interface for data persistence operations.
type Store interface {
	// User operations
	EnsureUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)

	// Board operations
	CreateBoard(ctx context.Context, board *models.Board) error
	GetBoard(ctx context.Context, id string) (*models.Board, error)
	ListBoardsForUser(ctx context.Context, userID string) ([]models.Board, error)
	UpdateBoard(ctx context.Context, board *models.Board) error
	DeleteBoard(ctx context.Context, id string) error
	CanAccessBoard(ctx context.Context, boardID, userID string, write bool) (bool, error)
	AddBoardMember(ctx context.Context, member *models.BoardMember) error
	RemoveBoardMember(ctx context.Context, boardID, userID string) error
	ListBoardMembers(ctx context.Context, boardID string) ([]models.BoardMember, error)

	// List operations
	CreateList(ctx context.Context, list *models.List) error
	GetList(ctx context.Context, id string) (*models.List, error)
	UpdateList(ctx context.Context, list *models.List) error
	DeleteList(ctx context.Context, id string) error
	ReorderLists(ctx context.Context, boardID string, ids []string) error
	ListListsWithCards(ctx context.Context, boardID string) ([]models.ListWithCards, error)

	// Card operations
	CreateCard(ctx context.Context, card *models.Card) error
	GetCard(ctx context.Context, id string) (*models.Card, error)
	UpdateCard(ctx context.Context, card *models.Card) error
	DeleteCard(ctx context.Context, id string) error
	MoveCard(ctx context.Context, cardID, targetListID string, position int) error
	BoardIDForCard(ctx context.Context, cardID string) (string, error)
	AssignCardMember(ctx context.Context, cardID, userID string) error
	UnassignCardMember(ctx context.Context, cardID, userID string) error

	// Label operations
	CreateLabel(ctx context.Context, label *models.Label) error
	ListLabels(ctx context.Context, boardID string) ([]models.Label, error)
	AddCardLabel(ctx context.Context, cardID, labelID string) error
	RemoveCardLabel(ctx context.Context, cardID, labelID string) error

	// Comments and activity
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, cardID string) ([]models.Comment, error)
	ListActivity(ctx context.Context, boardID string, limit int) ([]models.Activity, error)

	// Lifecycle
	Close() error
}

type actorKey struct{}

// WithActor returns a context that attributes store mutations to userID in the
// activity log.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func actorFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(actorKey{}).(string)
	return userID
}
