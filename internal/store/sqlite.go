package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"taskboard/internal/models"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given database path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func newID() string {
	return uuid.NewString()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// recordActivity appends an entry to the board's activity log using the actor
// carried by ctx.
func recordActivity(ctx context.Context, ex execer, boardID, action, entityType, entityID, detail string) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO activities (id, board_id, user_id, action, entity_type, entity_id, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, newID(), boardID, actorFromContext(ctx), action, entityType, entityID, detail, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// EnsureUser inserts the user if missing and refreshes non-empty profile fields.
func (s *SQLiteStore) EnsureUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = CASE WHEN excluded.email != '' THEN excluded.email ELSE users.email END,
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE users.name END
	`, user.ID, user.Email, user.Name, now)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CreateBoard creates a new board in the database.
func (s *SQLiteStore) CreateBoard(ctx context.Context, board *models.Board) error {
	now := time.Now()
	board.ID = newID()
	board.CreatedAt = now
	board.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO boards (id, title, private, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, board.ID, board.Title, board.Private, board.OwnerID, now, now)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	if err := recordActivity(ctx, tx, board.ID, models.ActionCreated, "board", board.ID, board.Title); err != nil {
		return err
	}

	return tx.Commit()
}

// GetBoard retrieves a board by ID.
func (s *SQLiteStore) GetBoard(ctx context.Context, id string) (*models.Board, error) {
	board := &models.Board{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, private, owner_id, created_at, updated_at
		FROM boards WHERE id = ?
	`, id).Scan(
		&board.ID,
		&board.Title,
		&board.Private,
		&board.OwnerID,
		&board.CreatedAt,
		&board.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("board %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	return board, nil
}

// ListBoardsForUser retrieves boards the user owns or is a member of, newest first.
func (s *SQLiteStore) ListBoardsForUser(ctx context.Context, userID string) ([]models.Board, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, private, owner_id, created_at, updated_at
		FROM boards
		WHERE owner_id = ? OR id IN (SELECT board_id FROM board_members WHERE user_id = ?)
		ORDER BY created_at DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	boards := []models.Board{}
	for rows.Next() {
		var board models.Board
		if err := rows.Scan(
			&board.ID,
			&board.Title,
			&board.Private,
			&board.OwnerID,
			&board.CreatedAt,
			&board.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, board)
	}

	return boards, rows.Err()
}

// UpdateBoard updates the title and privacy of an existing board.
func (s *SQLiteStore) UpdateBoard(ctx context.Context, board *models.Board) error {
	board.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE boards SET title = ?, private = ?, updated_at = ? WHERE id = ?
	`, board.Title, board.Private, board.UpdatedAt, board.ID)
	if err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}
	if err := expectAffected(res, "board", board.ID); err != nil {
		return err
	}

	if err := recordActivity(ctx, tx, board.ID, models.ActionUpdated, "board", board.ID, board.Title); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteBoard deletes a board and everything it contains.
func (s *SQLiteStore) DeleteBoard(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}

// CanAccessBoard reports whether userID may read (or, with write, mutate) the
// board. Owners and members may do both; anyone may read a public board.
func (s *SQLiteStore) CanAccessBoard(ctx context.Context, boardID, userID string, write bool) (bool, error) {
	var (
		ownerID  string
		private  bool
		isMember bool
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT b.owner_id, b.private,
			EXISTS(SELECT 1 FROM board_members m WHERE m.board_id = b.id AND m.user_id = ?)
		FROM boards b WHERE b.id = ?
	`, userID, boardID).Scan(&ownerID, &private, &isMember)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("board %s: %w", boardID, ErrNotFound)
		}
		return false, fmt.Errorf("failed to check board access: %w", err)
	}

	if userID != "" && (ownerID == userID || isMember) {
		return true, nil
	}
	return !write && !private, nil
}

// AddBoardMember grants a user access to a board, updating the role if the
// membership already exists.
func (s *SQLiteStore) AddBoardMember(ctx context.Context, member *models.BoardMember) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO board_members (board_id, user_id, role) VALUES (?, ?, ?)
		ON CONFLICT(board_id, user_id) DO UPDATE SET role = excluded.role
	`, member.BoardID, member.UserID, member.Role)
	if err != nil {
		return fmt.Errorf("failed to add board member: %w", err)
	}

	if err := recordActivity(ctx, tx, member.BoardID, models.ActionAssigned, "member", member.UserID, member.Role); err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveBoardMember revokes a user's membership.
func (s *SQLiteStore) RemoveBoardMember(ctx context.Context, boardID, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM board_members WHERE board_id = ? AND user_id = ?`, boardID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove board member: %w", err)
	}
	return nil
}

// ListBoardMembers returns the explicit members of a board (the owner is not included).
func (s *SQLiteStore) ListBoardMembers(ctx context.Context, boardID string) ([]models.BoardMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT board_id, user_id, role FROM board_members WHERE board_id = ? ORDER BY user_id
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board members: %w", err)
	}
	defer rows.Close()

	members := []models.BoardMember{}
	for rows.Next() {
		var m models.BoardMember
		if err := rows.Scan(&m.BoardID, &m.UserID, &m.Role); err != nil {
			return nil, fmt.Errorf("failed to scan board member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

func expectAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
