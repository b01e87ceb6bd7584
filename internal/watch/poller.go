package watch

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/board"
)

// Poller fetches a board's lists on a fixed interval.
type Poller struct {
	*tracker

	fetcher Fetcher
	boardID string
	opts    Options
}

var _ Watcher = (*Poller)(nil)

// NewPoller creates a poller for boardID. It starts disconnected with no snapshot.
func NewPoller(fetcher Fetcher, boardID string, opts Options) *Poller {
	opts = opts.withDefaults(DefaultPollInterval)
	return &Poller{
		tracker: newTracker(),
		fetcher: fetcher,
		boardID: boardID,
		opts:    opts,
	}
}

// Run polls immediately and then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.opts.Logger.WithFields(log.Fields{
		"board_id": p.boardID,
		"interval": p.opts.Interval,
	}).Debug("poller started")

	p.Poll(ctx)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.opts.Logger.WithField("board_id", p.boardID).Debug("poller stopped")
			return nil
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs one fetch cycle. Failures mark the poller disconnected and keep
// the last snapshot. It reports whether the snapshot was replaced.
func (p *Poller) Poll(ctx context.Context) (changed bool) {
	if ctx.Err() != nil {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			p.opts.Logger.WithField("board_id", p.boardID).Errorf("poll panicked: %v", r)
			p.setConnected(false)
			changed = false
		}
	}()

	lists, err := p.fetcher.BoardLists(ctx, p.boardID)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		p.setConnected(false)
		p.opts.Logger.WithError(fmt.Errorf("failed to fetch board lists: %w", err)).
			WithField("board_id", p.boardID).Warn("poll failed")
		return false
	}

	snap := board.NewSnapshot(lists)
	if !p.observe(snap) {
		return false
	}
	if p.opts.OnChange != nil {
		p.opts.OnChange(snap)
	}
	return true
}
