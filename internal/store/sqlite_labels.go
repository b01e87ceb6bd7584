package store

import (
	"context"
	"fmt"
	"time"

	"taskboard/internal/models"
)

// CreateLabel creates a label on a board.
func (s *SQLiteStore) CreateLabel(ctx context.Context, label *models.Label) error {
	label.ID = newID()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO labels (id, board_id, name, color) VALUES (?, ?, ?, ?)
	`, label.ID, label.BoardID, label.Name, label.Color)
	if err != nil {
		return fmt.Errorf("failed to create label: %w", err)
	}
	return nil
}

// ListLabels returns the labels defined on a board.
func (s *SQLiteStore) ListLabels(ctx context.Context, boardID string) ([]models.Label, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, name, color FROM labels WHERE board_id = ? ORDER BY name ASC
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	labels := []models.Label{}
	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Name, &l.Color); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// AddCardLabel attaches a label to a card. Both must belong to the same board.
func (s *SQLiteStore) AddCardLabel(ctx context.Context, cardID, labelID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	boardID, err := boardIDForCard(ctx, tx, cardID)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO card_labels (card_id, label_id)
		SELECT ?, id FROM labels WHERE id = ? AND board_id = ?
	`, cardID, labelID, boardID)
	if err != nil {
		return fmt.Errorf("failed to add card label: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM card_labels WHERE card_id = ? AND label_id = ?)
		`, cardID, labelID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check card label: %w", err)
		}
		if !exists {
			return fmt.Errorf("label %s: %w", labelID, ErrNotFound)
		}
	}

	if err := recordActivity(ctx, tx, boardID, models.ActionUpdated, "card", cardID, "label "+labelID); err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveCardLabel detaches a label from a card.
func (s *SQLiteStore) RemoveCardLabel(ctx context.Context, cardID, labelID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM card_labels WHERE card_id = ? AND label_id = ?`, cardID, labelID)
	if err != nil {
		return fmt.Errorf("failed to remove card label: %w", err)
	}
	return nil
}

// CreateComment adds a comment to a card.
func (s *SQLiteStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = newID()
	comment.CreatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	boardID, err := boardIDForCard(ctx, tx, comment.CardID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comments (id, card_id, user_id, body, created_at) VALUES (?, ?, ?, ?, ?)
	`, comment.ID, comment.CardID, comment.UserID, comment.Body, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	if err := recordActivity(ctx, tx, boardID, models.ActionComment, "card", comment.CardID, comment.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListComments returns a card's comments, oldest first.
func (s *SQLiteStore) ListComments(ctx context.Context, cardID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, card_id, user_id, body, created_at FROM comments WHERE card_id = ? ORDER BY created_at ASC
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.CardID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ListActivity returns the most recent activity on a board, newest first.
// If limit is 0, all entries are returned.
func (s *SQLiteStore) ListActivity(ctx context.Context, boardID string, limit int) ([]models.Activity, error) {
	query := `
		SELECT id, board_id, user_id, action, entity_type, entity_id, detail, created_at
		FROM activities WHERE board_id = ? ORDER BY created_at DESC, rowid DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.BoardID, &a.UserID, &a.Action, &a.EntityType, &a.EntityID, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
