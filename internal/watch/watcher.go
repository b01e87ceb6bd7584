// Package watch keeps a client's board snapshot eventually consistent with
// the server, either by polling or by following the board's event stream.
package watch

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/board"
	"taskboard/internal/models"
)

// DefaultPollInterval is the delay between two polls of the board lists.
const DefaultPollInterval = 3 * time.Second

// Watcher follows one board.
type Watcher interface {
	// Run blocks until ctx is cancelled.
	Run(ctx context.Context) error
	// Snapshot returns the last snapshot observed and whether one was observed.
	Snapshot() (board.Snapshot, bool)
	// Connected reports whether the last fetch or stream event succeeded.
	Connected() bool
	// LastUpdate is when the snapshot was last replaced.
	LastUpdate() time.Time
}

// Fetcher reads the current lists of a board, bypassing caches.
type Fetcher interface {
	BoardLists(ctx context.Context, boardID string) ([]models.ListWithCards, error)
}

// Options configure a watcher.
type Options struct {
	// Interval is the poll interval or, for streams, the initial reconnect delay.
	Interval time.Duration
	Logger   log.FieldLogger
	// OnChange receives every snapshot that replaced the previous one.
	OnChange func(board.Snapshot)
}

func (o Options) withDefaults(interval time.Duration) Options {
	if o.Interval <= 0 {
		o.Interval = interval
	}
	if o.Logger == nil {
		o.Logger = log.StandardLogger()
	}
	return o
}

// tracker detects layout changes by fingerprint and holds the current view.
type tracker struct {
	mu          sync.RWMutex
	snapshot    board.Snapshot
	fingerprint board.Fingerprint
	observed    bool
	lastUpdate  time.Time
	connected   bool

	now func() time.Time
}

func newTracker() *tracker {
	return &tracker{now: time.Now}
}

// observe replaces the snapshot when its fingerprint differs from the stored
// one and reports whether it did.
func (t *tracker) observe(s board.Snapshot) bool {
	fp := board.ComputeFingerprint(s)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = true
	if t.observed && fp == t.fingerprint {
		return false
	}
	t.snapshot = s
	t.fingerprint = fp
	t.observed = true
	t.lastUpdate = t.now()
	return true
}

func (t *tracker) setConnected(v bool) {
	t.mu.Lock()
	t.connected = v
	t.mu.Unlock()
}

func (t *tracker) Snapshot() (board.Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot, t.observed
}

func (t *tracker) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

func (t *tracker) LastUpdate() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastUpdate
}
