package importer

import (
	"context"
	"fmt"
	"sort"

	"github.com/adlio/trello"
)

// TrelloSource reads boards through the Trello REST API.
type TrelloSource struct {
	client *trello.Client
}

// NewTrelloSource creates a source authenticated with a Trello API key and token.
func NewTrelloSource(apiKey, token string) *TrelloSource {
	return &TrelloSource{client: trello.NewClient(apiKey, token)}
}

// FetchBoard loads the open lists and cards of a Trello board with its labels.
func (s *TrelloSource) FetchBoard(ctx context.Context, boardID string) (*Board, error) {
	tb, err := s.client.GetBoard(boardID, trello.Defaults())
	if err != nil {
		return nil, fmt.Errorf("failed to get trello board: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	open := trello.Arguments{"filter": "open"}
	lists, err := tb.GetLists(open)
	if err != nil {
		return nil, fmt.Errorf("failed to get trello lists: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cards, err := tb.GetCards(open)
	if err != nil {
		return nil, fmt.Errorf("failed to get trello cards: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	labels, err := tb.GetLabels(trello.Defaults())
	if err != nil {
		return nil, fmt.Errorf("failed to get trello labels: %w", err)
	}

	sort.SliceStable(lists, func(i, j int) bool { return lists[i].Pos < lists[j].Pos })
	sort.SliceStable(cards, func(i, j int) bool { return cards[i].Pos < cards[j].Pos })

	b := &Board{Name: tb.Name}
	for _, l := range labels {
		b.Labels = append(b.Labels, Label{ID: l.ID, Name: l.Name, Color: l.Color})
	}

	byList := make(map[string]int, len(lists))
	for _, l := range lists {
		if l.Closed {
			continue
		}
		byList[l.ID] = len(b.Lists)
		b.Lists = append(b.Lists, List{Name: l.Name})
	}
	for _, c := range cards {
		li, ok := byList[c.IDList]
		if !ok || c.Closed {
			continue
		}
		b.Lists[li].Cards = append(b.Lists[li].Cards, Card{
			Name:     c.Name,
			Desc:     c.Desc,
			Due:      c.Due,
			LabelIDs: c.IDLabels,
		})
	}
	return b, nil
}
