// Package board holds the client-side board snapshot and the pure operations
// the reorder engine and the watchers perform on it.
package board

import "taskboard/internal/models"

// Snapshot is an ordered set of lists with their ordered cards. A Snapshot is
// treated as immutable: operations return a new value and never modify the
// lists or card slices of their input.
type Snapshot struct {
	Lists []models.ListWithCards `json:"lists"`
}

// NewSnapshot wraps lists as a Snapshot.
func NewSnapshot(lists []models.ListWithCards) Snapshot {
	if lists == nil {
		lists = []models.ListWithCards{}
	}
	return Snapshot{Lists: lists}
}

// Location identifies where a card sits in a snapshot.
type Location struct {
	ListIndex int
	CardIndex int
}

// Index maps identifiers to their position in a snapshot. List ids map to a
// Location with CardIndex -1.
type Index struct {
	lists map[string]int
	cards map[string]Location
}

// BuildIndex walks every list and card once.
func BuildIndex(s Snapshot) Index {
	idx := Index{
		lists: make(map[string]int, len(s.Lists)),
		cards: make(map[string]Location),
	}
	for li, l := range s.Lists {
		idx.lists[l.ID] = li
		for ci, c := range l.Cards {
			idx.cards[c.ID] = Location{ListIndex: li, CardIndex: ci}
		}
	}
	return idx
}

// List returns the index of the list with id.
func (x Index) List(id string) (int, bool) {
	li, ok := x.lists[id]
	return li, ok
}

// Card returns the location of the card with id.
func (x Index) Card(id string) (Location, bool) {
	loc, ok := x.cards[id]
	return loc, ok
}

// ListOf returns the index of the list id names, or of the list containing
// the card id names.
func (x Index) ListOf(id string) (int, bool) {
	if li, ok := x.lists[id]; ok {
		return li, true
	}
	if loc, ok := x.cards[id]; ok {
		return loc.ListIndex, true
	}
	return 0, false
}

// CardIDs returns the card ids of list li in order.
func (s Snapshot) CardIDs(li int) []string {
	ids := make([]string, 0, len(s.Lists[li].Cards))
	for _, c := range s.Lists[li].Cards {
		ids = append(ids, c.ID)
	}
	return ids
}

// CardCount returns the number of cards across all lists.
func (s Snapshot) CardCount() int {
	n := 0
	for _, l := range s.Lists {
		n += len(l.Cards)
	}
	return n
}
