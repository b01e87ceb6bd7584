// Package importer copies boards from Trello into taskboard.
package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/models"
)

// Board is a board read from an external source, lists and cards in display order.
type Board struct {
	Name   string
	Lists  []List
	Labels []Label
}

// List is an ordered column of cards.
type List struct {
	Name  string
	Cards []Card
}

// Card is a card with references to Board.Labels by source id.
type Card struct {
	Name     string
	Desc     string
	Due      *time.Time
	LabelIDs []string
}

// Label is a board label keyed by its source id.
type Label struct {
	ID    string
	Name  string
	Color string
}

// Source reads a board from an external system.
type Source interface {
	FetchBoard(ctx context.Context, boardID string) (*Board, error)
}

// Target receives the imported board. *client.Client implements it.
type Target interface {
	CreateBoard(ctx context.Context, title string, private bool) (*models.Board, error)
	CreateList(ctx context.Context, boardID, title string) (*models.List, error)
	CreateCard(ctx context.Context, listID string, card models.Card) (*models.Card, error)
	CreateLabel(ctx context.Context, boardID, name, color string) (*models.Label, error)
	AddCardLabel(ctx context.Context, cardID, labelID string) error
}

// Summary counts what an import created.
type Summary struct {
	BoardID string
	Lists   int
	Cards   int
	Labels  int
}

// Importer copies a source board into a new target board.
type Importer struct {
	source Source
	target Target
	logger log.FieldLogger
}

// New creates an importer.
func New(source Source, target Target, logger log.FieldLogger) *Importer {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Importer{source: source, target: target, logger: logger}
}

// Import creates a private board mirroring sourceBoardID. Lists and cards are
// created in source order so their positions match. Labels the palette cannot
// represent keep their name and lose their color.
func (im *Importer) Import(ctx context.Context, sourceBoardID string) (Summary, error) {
	var sum Summary
	logger := im.logger.WithField("source_board", sourceBoardID)

	src, err := im.source.FetchBoard(ctx, sourceBoardID)
	if err != nil {
		return sum, fmt.Errorf("failed to fetch source board: %w", err)
	}

	title := strings.TrimSpace(src.Name)
	if title == "" {
		title = "Imported board"
	}
	b, err := im.target.CreateBoard(ctx, title, true)
	if err != nil {
		return sum, fmt.Errorf("failed to create board: %w", err)
	}
	sum.BoardID = b.ID
	logger = logger.WithField("board_id", b.ID)

	labels := make(map[string]string, len(src.Labels))
	for _, l := range src.Labels {
		color := paletteColor(l.Color)
		if strings.TrimSpace(l.Name) == "" && color == "" {
			logger.WithField("label", l.ID).Debug("skipping label without name or color")
			continue
		}
		created, err := im.target.CreateLabel(ctx, b.ID, l.Name, color)
		if err != nil {
			return sum, fmt.Errorf("failed to create label %q: %w", l.Name, err)
		}
		labels[l.ID] = created.ID
		sum.Labels++
	}

	for _, l := range src.Lists {
		list, err := im.target.CreateList(ctx, b.ID, l.Name)
		if err != nil {
			return sum, fmt.Errorf("failed to create list %q: %w", l.Name, err)
		}
		sum.Lists++

		for _, c := range l.Cards {
			card, err := im.target.CreateCard(ctx, list.ID, models.Card{
				Title:       c.Name,
				Description: c.Desc,
				DueDate:     c.Due,
			})
			if err != nil {
				return sum, fmt.Errorf("failed to create card %q: %w", c.Name, err)
			}
			sum.Cards++

			for _, id := range c.LabelIDs {
				labelID, ok := labels[id]
				if !ok {
					continue
				}
				if err := im.target.AddCardLabel(ctx, card.ID, labelID); err != nil {
					return sum, fmt.Errorf("failed to label card %q: %w", c.Name, err)
				}
			}
		}
	}

	logger.WithFields(log.Fields{
		"lists":  sum.Lists,
		"cards":  sum.Cards,
		"labels": sum.Labels,
	}).Info("board imported")
	return sum, nil
}

// paletteColor maps a source color such as "green_dark" onto the label
// palette, or "" when there is no match.
func paletteColor(c string) string {
	c = strings.ToLower(c)
	if i := strings.IndexByte(c, '_'); i >= 0 {
		c = c[:i]
	}
	for _, known := range models.LabelColors {
		if known == c {
			return c
		}
	}
	return ""
}
