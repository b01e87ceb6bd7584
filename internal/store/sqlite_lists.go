package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/models"
)

// CreateList appends a new list at the end of its board.
func (s *SQLiteStore) CreateList(ctx context.Context, list *models.List) error {
	now := time.Now()
	list.ID = newID()
	list.CreatedAt = now
	list.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position) + 1, 0) FROM lists WHERE board_id = ?
	`, list.BoardID).Scan(&list.Position); err != nil {
		return fmt.Errorf("failed to compute list position: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lists (id, board_id, title, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, list.ID, list.BoardID, list.Title, list.Position, now, now)
	if err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}

	if err := recordActivity(ctx, tx, list.BoardID, models.ActionCreated, "list", list.ID, list.Title); err != nil {
		return err
	}

	return tx.Commit()
}

// GetList retrieves a list by ID.
func (s *SQLiteStore) GetList(ctx context.Context, id string) (*models.List, error) {
	list := &models.List{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists WHERE id = ?
	`, id).Scan(&list.ID, &list.BoardID, &list.Title, &list.Position, &list.CreatedAt, &list.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("list %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return list, nil
}

// UpdateList renames a list.
func (s *SQLiteStore) UpdateList(ctx context.Context, list *models.List) error {
	list.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE lists SET title = ?, updated_at = ? WHERE id = ?
	`, list.Title, list.UpdatedAt, list.ID)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	if err := expectAffected(res, "list", list.ID); err != nil {
		return err
	}

	if err := recordActivity(ctx, tx, list.BoardID, models.ActionUpdated, "list", list.ID, list.Title); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteList deletes a list and its cards.
func (s *SQLiteStore) DeleteList(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var boardID, title string
	err = tx.QueryRowContext(ctx, `SELECT board_id, title FROM lists WHERE id = ?`, id).Scan(&boardID, &title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("list %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to get list: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	if err := recordActivity(ctx, tx, boardID, models.ActionDeleted, "list", id, title); err != nil {
		return err
	}

	return tx.Commit()
}

// ReorderLists assigns zero-based positions to the board's lists following
// ids, which must name every list on the board exactly once.
func (s *SQLiteStore) ReorderLists(ctx context.Context, boardID string, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := queryLists(ctx, tx, boardID)
	if err != nil {
		return err
	}
	if len(ids) != len(current) {
		return fmt.Errorf("%w: got %d ids for %d lists", ErrInvalidOrder, len(ids), len(current))
	}
	remaining := make(map[string]bool, len(current))
	for _, l := range current {
		remaining[l.ID] = true
	}
	for _, id := range ids {
		if !remaining[id] {
			return fmt.Errorf("%w: unknown or repeated list %s", ErrInvalidOrder, id)
		}
		delete(remaining, id)
	}

	stmt, err := tx.PrepareContext(ctx, `UPDATE lists SET position = ?, updated_at = ? WHERE id = ? AND board_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, i, now, id, boardID); err != nil {
			return fmt.Errorf("failed to update list position: %w", err)
		}
	}

	if err := recordActivity(ctx, tx, boardID, models.ActionMoved, "board", boardID, "lists reordered"); err != nil {
		return err
	}

	return tx.Commit()
}

// ListListsWithCards loads the board's lists in position order, each with its
// cards in position order, their labels and assigned members.
func (s *SQLiteStore) ListListsWithCards(ctx context.Context, boardID string) ([]models.ListWithCards, error) {
	// One transaction so a concurrent move never shows a card under the wrong list.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	lists, err := queryLists(ctx, tx, boardID)
	if err != nil {
		return nil, err
	}

	byList := make(map[string]int, len(lists))
	for i := range lists {
		byList[lists[i].ID] = i
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT c.id, c.list_id, c.title, c.description, c.due_date, c.position, c.created_at, c.updated_at
		FROM cards c JOIN lists l ON l.id = c.list_id
		WHERE l.board_id = ?
		ORDER BY l.position ASC, c.position ASC, c.created_at ASC
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	type cardRef struct{ list, idx int }
	byCard := make(map[string]cardRef)
	for rows.Next() {
		var card models.CardWithLabels
		var due sql.NullTime
		if err := rows.Scan(
			&card.ID,
			&card.ListID,
			&card.Title,
			&card.Description,
			&due,
			&card.Position,
			&card.CreatedAt,
			&card.UpdatedAt,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		card.DueDate = timePtr(due)
		card.Labels = []models.Label{}

		li, ok := byList[card.ListID]
		if !ok {
			continue
		}
		lists[li].Cards = append(lists[li].Cards, card)
		byCard[card.ID] = cardRef{list: li, idx: len(lists[li].Cards) - 1}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}

	labelRows, err := tx.QueryContext(ctx, `
		SELECT cl.card_id, lb.id, lb.board_id, lb.name, lb.color
		FROM card_labels cl JOIN labels lb ON lb.id = cl.label_id
		WHERE lb.board_id = ?
		ORDER BY lb.name ASC
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card labels: %w", err)
	}
	for labelRows.Next() {
		var cardID string
		var label models.Label
		if err := labelRows.Scan(&cardID, &label.ID, &label.BoardID, &label.Name, &label.Color); err != nil {
			labelRows.Close()
			return nil, fmt.Errorf("failed to scan card label: %w", err)
		}
		if ref, ok := byCard[cardID]; ok {
			c := &lists[ref.list].Cards[ref.idx]
			c.Labels = append(c.Labels, label)
		}
	}
	labelRows.Close()
	if err := labelRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card labels: %w", err)
	}

	memberRows, err := tx.QueryContext(ctx, `
		SELECT cm.card_id, cm.user_id
		FROM card_members cm JOIN cards c ON c.id = cm.card_id JOIN lists l ON l.id = c.list_id
		WHERE l.board_id = ?
		ORDER BY cm.user_id ASC
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card members: %w", err)
	}
	for memberRows.Next() {
		var cardID, userID string
		if err := memberRows.Scan(&cardID, &userID); err != nil {
			memberRows.Close()
			return nil, fmt.Errorf("failed to scan card member: %w", err)
		}
		if ref, ok := byCard[cardID]; ok {
			c := &lists[ref.list].Cards[ref.idx]
			c.MemberIDs = append(c.MemberIDs, userID)
		}
	}
	memberRows.Close()
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read: %w", err)
	}
	return lists, nil
}

func queryLists(ctx context.Context, q queryer, boardID string) ([]models.ListWithCards, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists WHERE board_id = ? ORDER BY position ASC, created_at ASC
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	lists := []models.ListWithCards{}
	for rows.Next() {
		var list models.ListWithCards
		if err := rows.Scan(
			&list.ID,
			&list.BoardID,
			&list.Title,
			&list.Position,
			&list.CreatedAt,
			&list.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		list.Cards = []models.CardWithLabels{}
		lists = append(lists, list)
	}

	return lists, rows.Err()
}
