// Package tui is an interactive terminal view of a board. Cards are moved by
// keyboard drag gestures applied through a reorder.Engine while a watcher
// keeps the board in sync with the server.
package tui

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/board"
	"taskboard/internal/reorder"
	"taskboard/internal/uistate"
	"taskboard/internal/watch"
)

// moveTimeout bounds a single move request.
const moveTimeout = 15 * time.Second

// SnapshotMsg delivers a new server snapshot to the model.
type SnapshotMsg struct {
	Snapshot board.Snapshot
}

// Feed returns a watch.Options.OnChange callback that forwards snapshots to p.
func Feed(p *tea.Program) func(board.Snapshot) {
	return func(s board.Snapshot) {
		p.Send(SnapshotMsg{Snapshot: s})
	}
}

type moveDoneMsg struct {
	result  reorder.Result
	message string
	isError bool
}

type tickMsg time.Time

// statusNotifier keeps the latest engine notification until the move command
// collects it. Only one move is in flight at a time.
type statusNotifier struct {
	mu      sync.Mutex
	message string
	isError bool
}

func (n *statusNotifier) Success(msg string) { n.set(msg, false) }
func (n *statusNotifier) Error(msg string)   { n.set(msg, true) }

func (n *statusNotifier) set(msg string, isError bool) {
	n.mu.Lock()
	n.message, n.isError = msg, isError
	n.mu.Unlock()
}

func (n *statusNotifier) take() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	msg, isError := n.message, n.isError
	n.message, n.isError = "", false
	return msg, isError
}

// Options configures a Model.
type Options struct {
	Title   string
	Mover   reorder.Mover
	Watcher watch.Watcher
	Logger  log.FieldLogger
}

// Model is the bubbletea model of the board screen.
type Model struct {
	title    string
	engine   *reorder.Engine
	notifier *statusNotifier
	watcher  watch.Watcher
	ui       *uistate.Container
	logger   log.FieldLogger

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	col, row int
	anchor   string
	loaded   bool
	moving   bool

	status    string
	statusErr bool

	width, height int
}

// New creates a board model. The board is empty until the first SnapshotMsg.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	notifier := &statusNotifier{}
	return Model{
		title:    opts.Title,
		engine:   reorder.NewEngine(board.NewSnapshot(nil), opts.Mover, notifier, logger),
		notifier: notifier,
		watcher:  opts.Watcher,
		ui:       uistate.New(uistate.State{}),
		logger:   logger,
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tick()

	case SnapshotMsg:
		m.engine.Replace(msg.Snapshot)
		m.loaded = true
		m.reanchor()
		return m, nil

	case moveDoneMsg:
		m.moving = false
		if msg.message != "" {
			m.status, m.statusErr = msg.message, msg.isError
		}
		if msg.result.Outcome == reorder.OutcomeStale && msg.result.Err != nil {
			m.status, m.statusErr = "Board changed, try again", true
		}
		if msg.result.Outcome == reorder.OutcomeBusy {
			m.status, m.statusErr = "Another move is still saving", true
		}
		m.reanchor()
		return m, nil

	case spinner.TickMsg:
		if !m.moving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.ui.Get().ModalOpen {
		if key.Matches(msg, m.keys.Cancel, m.keys.Drop) {
			m.ui.CloseModal()
		}
		return m, nil
	}

	_, dragging := m.engine.Session()

	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1, 0, dragging)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1, 0, dragging)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(0, -1, dragging)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(0, 1, dragging)
	case key.Matches(msg, m.keys.Cancel):
		if dragging {
			m.engine.CancelDrag()
			m.status, m.statusErr = "", false
			m.reanchor()
		}
	case key.Matches(msg, m.keys.Pick):
		if dragging || m.moving {
			return m, nil
		}
		id, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		if _, err := m.engine.BeginDrag(id); err != nil {
			m.status, m.statusErr = "Cannot move this card right now", true
			return m, nil
		}
		m.status, m.statusErr = "Moving card: choose a place and press enter", false
	case key.Matches(msg, m.keys.Drop):
		if dragging {
			return m.drop()
		}
		if id, ok := m.selectedCard(); ok {
			m.ui.OpenCard(id)
		}
	}
	return m, nil
}

// drop ends the current drag on the cursor's target and runs the move in the
// background. The optimistic snapshot is rendered while it runs.
func (m Model) drop() (tea.Model, tea.Cmd) {
	session, _ := m.engine.Session()
	target, ok := m.dropTarget()
	if !ok {
		m.engine.CancelDrag()
		return m, nil
	}

	m.anchor = session.CardID
	m.moving = true
	m.status, m.statusErr = "", false

	engine, notifier := m.engine, m.notifier
	move := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), moveTimeout)
		defer cancel()
		res := engine.EndDrag(ctx, session.CardID, target)
		text, isErr := notifier.take()
		return moveDoneMsg{result: res, message: text, isError: isErr}
	}
	return m, tea.Batch(move, m.spinner.Tick)
}

// moveCursor moves the selection. While dragging, each list has one extra
// slot after its last card that targets the list itself.
func (m *Model) moveCursor(dc, dr int, dragging bool) {
	snap := m.engine.Snapshot()
	if len(snap.Lists) == 0 {
		return
	}
	m.col = clamp(m.col+dc, 0, len(snap.Lists)-1)
	m.row = clamp(m.row+dr, 0, m.maxRow(snap, dragging))
	if id, ok := m.selectedCard(); ok && !dragging {
		m.anchor = id
	}
}

func (m Model) maxRow(snap board.Snapshot, dragging bool) int {
	n := len(snap.Lists[m.col].Cards)
	if dragging {
		return n
	}
	return max(n-1, 0)
}

func (m Model) selectedCard() (string, bool) {
	snap := m.engine.Snapshot()
	if m.col >= len(snap.Lists) {
		return "", false
	}
	cards := snap.Lists[m.col].Cards
	if m.row >= len(cards) {
		return "", false
	}
	return cards[m.row].ID, true
}

// dropTarget is the card under the cursor, or the list when the cursor is on
// the slot past its last card.
func (m Model) dropTarget() (string, bool) {
	if id, ok := m.selectedCard(); ok {
		return id, true
	}
	snap := m.engine.Snapshot()
	if m.col >= len(snap.Lists) {
		return "", false
	}
	return snap.Lists[m.col].ID, true
}

// reanchor moves the cursor to the anchored card after the snapshot changed
// and closes the card modal if its card is gone.
func (m *Model) reanchor() {
	snap := m.engine.Snapshot()
	idx := board.BuildIndex(snap)

	if st := m.ui.Get(); st.ModalOpen {
		if _, ok := idx.Card(st.ActiveCardID); !ok {
			m.ui.CloseModal()
		}
	}

	if loc, ok := idx.Card(m.anchor); ok {
		m.col, m.row = loc.ListIndex, loc.CardIndex
		return
	}
	if len(snap.Lists) == 0 {
		m.col, m.row = 0, 0
		return
	}
	_, dragging := m.engine.Session()
	m.col = clamp(m.col, 0, len(snap.Lists)-1)
	m.row = clamp(m.row, 0, m.maxRow(snap, dragging))
	if id, ok := m.selectedCard(); ok {
		m.anchor = id
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
