package reorder

import (
	"sync"

	"taskboard/internal/board"
)

// MoveRequest is the server call that confirms a pending snapshot.
type MoveRequest struct {
	CardID   string
	ListID   string
	Position int
}

// Pending holds the last confirmed snapshot and at most one optimistic
// snapshot awaiting confirmation.
type Pending struct {
	mu        sync.RWMutex
	confirmed board.Snapshot
	pending   *board.Snapshot
	request   *MoveRequest
	// replaced is set when fresher server state arrives while a move is pending.
	replaced bool
}

// NewPending starts from a confirmed snapshot.
func NewPending(confirmed board.Snapshot) *Pending {
	return &Pending{confirmed: confirmed}
}

// Current returns the optimistic snapshot if one is pending, otherwise the
// confirmed one.
func (p *Pending) Current() board.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.pending != nil {
		return *p.pending
	}
	return p.confirmed
}

// Confirmed returns the last confirmed snapshot.
func (p *Pending) Confirmed() board.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.confirmed
}

// Request returns the in-flight request, if any.
func (p *Pending) Request() (MoveRequest, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.request == nil {
		return MoveRequest{}, false
	}
	return *p.request, true
}

// Begin installs next as the optimistic snapshot. It returns false when
// another mutation is already pending.
func (p *Pending) Begin(next board.Snapshot, req MoveRequest) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending != nil {
		return false
	}
	p.pending = &next
	p.request = &req
	return true
}

// Commit promotes the pending snapshot to confirmed. If the confirmed
// snapshot was replaced while the move was in flight, the move is applied to
// that fresher snapshot instead, so changes made by other clients survive.
func (p *Pending) Commit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return
	}
	if p.replaced {
		p.confirmed = rebase(p.confirmed, *p.request)
	} else {
		p.confirmed = *p.pending
	}
	p.pending = nil
	p.request = nil
	p.replaced = false
}

// Rollback discards the pending snapshot, restoring the confirmed one.
func (p *Pending) Rollback() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
	p.request = nil
	p.replaced = false
}

// Replace swaps the confirmed snapshot, typically with fresher server state.
// A pending snapshot stays visible until it is committed or rolled back.
func (p *Pending) Replace(s board.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = s
	if p.pending != nil {
		p.replaced = true
	}
}

// rebase applies req to s unless s already shows the card at its requested
// place. A card or list missing from s leaves s as the server reported it.
func rebase(s board.Snapshot, req MoveRequest) board.Snapshot {
	idx := board.BuildIndex(s)
	from, ok := idx.Card(req.CardID)
	if !ok {
		return s
	}
	to, ok := idx.List(req.ListID)
	if !ok {
		return s
	}
	if from.ListIndex == to && from.CardIndex == req.Position {
		return s
	}
	next, err := board.MoveCard(s, from, to, req.Position)
	if err != nil {
		return s
	}
	return next
}
