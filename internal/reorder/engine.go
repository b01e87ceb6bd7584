// Package reorder applies card drag gestures to a board snapshot
// optimistically and confirms them with the server.
package reorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/board"
)

var (
	// ErrStaleReference is returned when an identifier is not in the snapshot,
	// usually because it was deleted concurrently.
	ErrStaleReference = errors.New("stale reference")
	// ErrMoveInFlight is returned when a drag starts while a move is awaiting
	// confirmation.
	ErrMoveInFlight = errors.New("move already in flight")
)

// Mover persists a card move.
type Mover interface {
	MoveCard(ctx context.Context, cardID, listID string, position int) error
}

// Notifier shows user-visible success and failure messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Outcome classifies the result of a drop.
type Outcome int

const (
	// OutcomeNoop means the card was dropped onto itself; nothing changed.
	OutcomeNoop Outcome = iota
	// OutcomeStale means the card or drop target no longer exists.
	OutcomeStale
	// OutcomeCommitted means the server confirmed the move.
	OutcomeCommitted
	// OutcomeRolledBack means the server rejected the move and the snapshot was restored.
	OutcomeRolledBack
	// OutcomeBusy means another move was still awaiting confirmation.
	OutcomeBusy
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoop:
		return "noop"
	case OutcomeStale:
		return "stale"
	case OutcomeCommitted:
		return "committed"
	case OutcomeRolledBack:
		return "rolled back"
	case OutcomeBusy:
		return "busy"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result describes what a drop did.
type Result struct {
	Outcome   Outcome
	Request   MoveRequest
	CrossList bool
	Err       error
}

// DragSession is the state of one drag gesture.
type DragSession struct {
	CardID       string
	OriginListID string
}

// GenericMoveError is shown when the server gives no message.
const GenericMoveError = "Failed to move card"

// Engine owns the board snapshot a client renders and translates drag
// gestures into optimistic mutations confirmed by a Mover.
type Engine struct {
	mover    Mover
	notifier Notifier
	logger   log.FieldLogger
	state    *Pending

	mu      sync.Mutex
	session *DragSession
}

// NewEngine creates an engine over an initial snapshot.
func NewEngine(initial board.Snapshot, mover Mover, notifier Notifier, logger log.FieldLogger) *Engine {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Engine{
		mover:    mover,
		notifier: notifier,
		logger:   logger,
		state:    NewPending(initial),
	}
}

// Snapshot returns the snapshot to render.
func (e *Engine) Snapshot() board.Snapshot {
	return e.state.Current()
}

// Replace installs a fresher server snapshot as the confirmed baseline.
func (e *Engine) Replace(s board.Snapshot) {
	e.state.Replace(s)
}

// Pending reports whether a move awaits confirmation.
func (e *Engine) Pending() bool {
	_, ok := e.state.Request()
	return ok
}

// Session returns the active drag session, if any.
func (e *Engine) Session() (DragSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return DragSession{}, false
	}
	return *e.session, true
}

// BeginDrag starts a drag of cardID.
func (e *Engine) BeginDrag(cardID string) (DragSession, error) {
	if e.Pending() {
		return DragSession{}, ErrMoveInFlight
	}

	snap := e.state.Current()
	loc, ok := board.BuildIndex(snap).Card(cardID)
	if !ok {
		return DragSession{}, fmt.Errorf("card %s: %w", cardID, ErrStaleReference)
	}

	session := DragSession{CardID: cardID, OriginListID: snap.Lists[loc.ListIndex].ID}
	e.mu.Lock()
	e.session = &session
	e.mu.Unlock()
	return session, nil
}

// CancelDrag ends the current gesture without a drop.
func (e *Engine) CancelDrag() {
	e.mu.Lock()
	e.session = nil
	e.mu.Unlock()
}

// EndDrag drops cardID onto dropTargetID, which is a list id or the id of
// another card. The optimistic snapshot is visible before the Mover is
// called; EndDrag returns once the server has answered.
func (e *Engine) EndDrag(ctx context.Context, cardID, dropTargetID string) Result {
	e.CancelDrag()

	snap := e.state.Current()
	idx := board.BuildIndex(snap)

	from, ok := idx.Card(cardID)
	if !ok {
		return Result{Outcome: OutcomeStale, Err: fmt.Errorf("card %s: %w", cardID, ErrStaleReference)}
	}
	targetList, ok := idx.ListOf(dropTargetID)
	if !ok {
		return Result{Outcome: OutcomeStale, Err: fmt.Errorf("drop target %s: %w", dropTargetID, ErrStaleReference)}
	}

	sameList := from.ListIndex == targetList
	if sameList && cardID == dropTargetID {
		return Result{Outcome: OutcomeNoop}
	}

	position := targetPosition(snap, idx, targetList, dropTargetID, sameList)
	next, err := board.MoveCard(snap, from, targetList, position)
	if err != nil {
		return Result{Outcome: OutcomeStale, Err: err}
	}

	req := MoveRequest{CardID: cardID, ListID: snap.Lists[targetList].ID, Position: position}
	if !e.state.Begin(next, req) {
		return Result{Outcome: OutcomeBusy, Request: req, Err: ErrMoveInFlight}
	}

	if err := e.mover.MoveCard(ctx, req.CardID, req.ListID, req.Position); err != nil {
		e.state.Rollback()
		e.logger.WithError(err).WithField("card_id", cardID).Warn("move rejected, restoring snapshot")
		e.notify(false, errorMessage(err))
		return Result{Outcome: OutcomeRolledBack, Request: req, CrossList: !sameList, Err: err}
	}

	e.state.Commit()
	if !sameList {
		e.notify(true, "Card moved")
	}
	return Result{Outcome: OutcomeCommitted, Request: req, CrossList: !sameList}
}

// targetPosition is the final index of the dragged card within the target list.
// Same-list drops on the list land on the last index (the list keeps its
// length); cross-list drops on the list land after the current last card.
func targetPosition(s board.Snapshot, idx board.Index, targetList int, dropTargetID string, sameList bool) int {
	if loc, ok := idx.Card(dropTargetID); ok {
		return loc.CardIndex
	}
	n := len(s.Lists[targetList].Cards)
	if sameList {
		return n - 1
	}
	return n
}

func (e *Engine) notify(ok bool, msg string) {
	if e.notifier == nil {
		return
	}
	if ok {
		e.notifier.Success(msg)
		return
	}
	e.notifier.Error(msg)
}

// messenger is implemented by errors carrying a server-provided message.
type messenger interface {
	UserMessage() string
}

func errorMessage(err error) string {
	var m messenger
	if errors.As(err, &m) && m.UserMessage() != "" {
		return m.UserMessage()
	}
	return GenericMoveError
}
