package board

import (
	"fmt"

	"taskboard/internal/models"
)

// MoveCard returns a snapshot in which the card at from is removed from its
// list and inserted into list toList at index toIndex, counted after the
// removal. toIndex is clamped to the destination bounds. Lists other than the
// source and destination, and all other cards, are carried over unchanged.
func MoveCard(s Snapshot, from Location, toList, toIndex int) (Snapshot, error) {
	if from.ListIndex < 0 || from.ListIndex >= len(s.Lists) {
		return Snapshot{}, fmt.Errorf("source list index %d out of range", from.ListIndex)
	}
	src := s.Lists[from.ListIndex]
	if from.CardIndex < 0 || from.CardIndex >= len(src.Cards) {
		return Snapshot{}, fmt.Errorf("card index %d out of range", from.CardIndex)
	}
	if toList < 0 || toList >= len(s.Lists) {
		return Snapshot{}, fmt.Errorf("destination list index %d out of range", toList)
	}

	card := src.Cards[from.CardIndex]

	lists := make([]models.ListWithCards, len(s.Lists))
	copy(lists, s.Lists)

	remaining := make([]models.CardWithLabels, 0, len(src.Cards)-1)
	remaining = append(remaining, src.Cards[:from.CardIndex]...)
	remaining = append(remaining, src.Cards[from.CardIndex+1:]...)
	lists[from.ListIndex].Cards = remaining

	dest := lists[toList].Cards
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(dest) {
		toIndex = len(dest)
	}

	card.ListID = lists[toList].ID
	inserted := make([]models.CardWithLabels, 0, len(dest)+1)
	inserted = append(inserted, dest[:toIndex]...)
	inserted = append(inserted, card)
	inserted = append(inserted, dest[toIndex:]...)
	lists[toList].Cards = renumber(inserted)
	if toList != from.ListIndex {
		lists[from.ListIndex].Cards = renumber(lists[from.ListIndex].Cards)
	}

	return Snapshot{Lists: lists}, nil
}

// renumber sets positions to match indices. The slice is freshly allocated
// by the caller, so writing to it does not touch the source snapshot.
func renumber(cards []models.CardWithLabels) []models.CardWithLabels {
	for i := range cards {
		cards[i].Position = i
	}
	return cards
}
