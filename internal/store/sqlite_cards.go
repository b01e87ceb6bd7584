package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/models"
)

// CreateCard appends a new card at the end of its list.
func (s *SQLiteStore) CreateCard(ctx context.Context, card *models.Card) error {
	now := time.Now()
	card.ID = newID()
	card.CreatedAt = now
	card.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	boardID, err := boardIDForList(ctx, tx, card.ListID)
	if err != nil {
		return err
	}

	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position) + 1, 0) FROM cards WHERE list_id = ?
	`, card.ListID).Scan(&card.Position); err != nil {
		return fmt.Errorf("failed to compute card position: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cards (id, list_id, title, description, due_date, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, card.ID, card.ListID, card.Title, card.Description, nullableTime(card.DueDate), card.Position, now, now)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	if err := recordActivity(ctx, tx, boardID, models.ActionCreated, "card", card.ID, card.Title); err != nil {
		return err
	}

	return tx.Commit()
}

// GetCard retrieves a card by ID.
func (s *SQLiteStore) GetCard(ctx context.Context, id string) (*models.Card, error) {
	card := &models.Card{}
	var due sql.NullTime

	err := s.db.QueryRowContext(ctx, `
		SELECT id, list_id, title, description, due_date, position, created_at, updated_at
		FROM cards WHERE id = ?
	`, id).Scan(
		&card.ID,
		&card.ListID,
		&card.Title,
		&card.Description,
		&due,
		&card.Position,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	card.DueDate = timePtr(due)

	return card, nil
}

// UpdateCard updates a card's content. Position and list are changed only by MoveCard.
func (s *SQLiteStore) UpdateCard(ctx context.Context, card *models.Card) error {
	card.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE cards SET title = ?, description = ?, due_date = ?, updated_at = ? WHERE id = ?
	`, card.Title, card.Description, nullableTime(card.DueDate), card.UpdatedAt, card.ID)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	if err := expectAffected(res, "card", card.ID); err != nil {
		return err
	}

	boardID, err := boardIDForList(ctx, tx, card.ListID)
	if err != nil {
		return err
	}
	if err := recordActivity(ctx, tx, boardID, models.ActionUpdated, "card", card.ID, card.Title); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteCard deletes a card. Remaining positions keep their gap.
func (s *SQLiteStore) DeleteCard(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	boardID, err := boardIDForCard(ctx, tx, id)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	if err := recordActivity(ctx, tx, boardID, models.ActionDeleted, "card", id, ""); err != nil {
		return err
	}

	return tx.Commit()
}

// MoveCard places the card at position within targetListID and renumbers the
// affected lists densely from zero inside one transaction. Positions past the
// end append; a repeated call with the same arguments leaves the order unchanged.
func (s *SQLiteStore) MoveCard(ctx context.Context, cardID, targetListID string, position int) error {
	if position < 0 {
		return fmt.Errorf("%w: position must not be negative", ErrInvalidMove)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var sourceListID, title string
	err = tx.QueryRowContext(ctx, `SELECT list_id, title FROM cards WHERE id = ?`, cardID).Scan(&sourceListID, &title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
		}
		return fmt.Errorf("failed to get card: %w", err)
	}

	sourceBoardID, err := boardIDForList(ctx, tx, sourceListID)
	if err != nil {
		return err
	}
	targetBoardID, err := boardIDForList(ctx, tx, targetListID)
	if err != nil {
		return err
	}
	if sourceBoardID != targetBoardID {
		return fmt.Errorf("%w: target list belongs to another board", ErrInvalidMove)
	}

	ids, err := cardIDsInList(ctx, tx, targetListID, cardID)
	if err != nil {
		return err
	}
	if position > len(ids) {
		position = len(ids)
	}
	ids = append(ids, "")
	copy(ids[position+1:], ids[position:])
	ids[position] = cardID

	stmt, err := tx.PrepareContext(ctx, `UPDATE cards SET list_id = ?, position = ?, updated_at = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, targetListID, i, now, id); err != nil {
			return fmt.Errorf("failed to update card position: %w", err)
		}
	}

	if sourceListID != targetListID {
		rest, err := cardIDsInList(ctx, tx, sourceListID, cardID)
		if err != nil {
			return err
		}
		for i, id := range rest {
			if _, err := stmt.ExecContext(ctx, sourceListID, i, now, id); err != nil {
				return fmt.Errorf("failed to renumber source list: %w", err)
			}
		}
	}

	detail := fmt.Sprintf("%s -> %s@%d", sourceListID, targetListID, position)
	if err := recordActivity(ctx, tx, targetBoardID, models.ActionMoved, "card", cardID, detail); err != nil {
		return err
	}

	return tx.Commit()
}

// BoardIDForCard resolves the board a card belongs to.
func (s *SQLiteStore) BoardIDForCard(ctx context.Context, cardID string) (string, error) {
	return boardIDForCard(ctx, s.db, cardID)
}

// AssignCardMember assigns a user to a card; assigning twice is a no-op.
func (s *SQLiteStore) AssignCardMember(ctx context.Context, cardID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	boardID, err := boardIDForCard(ctx, tx, cardID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO card_members (card_id, user_id) VALUES (?, ?)
	`, cardID, userID); err != nil {
		return fmt.Errorf("failed to assign card member: %w", err)
	}

	if err := recordActivity(ctx, tx, boardID, models.ActionAssigned, "card", cardID, userID); err != nil {
		return err
	}

	return tx.Commit()
}

// UnassignCardMember removes a user from a card.
func (s *SQLiteStore) UnassignCardMember(ctx context.Context, cardID, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM card_members WHERE card_id = ? AND user_id = ?`, cardID, userID)
	if err != nil {
		return fmt.Errorf("failed to unassign card member: %w", err)
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func boardIDForList(ctx context.Context, q queryer, listID string) (string, error) {
	var boardID string
	err := q.QueryRowContext(ctx, `SELECT board_id FROM lists WHERE id = ?`, listID).Scan(&boardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("list %s: %w", listID, ErrNotFound)
		}
		return "", fmt.Errorf("failed to resolve list board: %w", err)
	}
	return boardID, nil
}

func boardIDForCard(ctx context.Context, q queryer, cardID string) (string, error) {
	var boardID string
	err := q.QueryRowContext(ctx, `
		SELECT l.board_id FROM cards c JOIN lists l ON l.id = c.list_id WHERE c.id = ?
	`, cardID).Scan(&boardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("card %s: %w", cardID, ErrNotFound)
		}
		return "", fmt.Errorf("failed to resolve card board: %w", err)
	}
	return boardID, nil
}

// cardIDsInList returns the list's card ids in position order, leaving out skipID.
func cardIDsInList(ctx context.Context, q queryer, listID, skipID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id FROM cards WHERE list_id = ? AND id != ? ORDER BY position ASC, created_at ASC
	`, listID, skipID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
