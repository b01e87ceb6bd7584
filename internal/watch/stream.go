package watch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"taskboard/internal/board"
	"taskboard/internal/models"
)

// Stream event names.
const (
	EventConnection  = "connection"
	EventBoardUpdate = "board_update"
	EventHeartbeat   = "heartbeat"
	EventError       = "error"
)

const (
	defaultReconnectDelay = time.Second
	maxReconnectDelay     = 30 * time.Second
	maxEventSize          = 4 << 20
)

// Streamer opens a board's server-sent event stream.
type Streamer interface {
	OpenBoardStream(ctx context.Context, boardID string) (io.ReadCloser, error)
}

// BoardUpdate is the payload of a board_update event.
type BoardUpdate struct {
	Lists     []models.ListWithCards `json:"lists"`
	Timestamp int64                  `json:"timestamp"`
}

// StreamWatcher follows the board event stream and reconnects with backoff.
type StreamWatcher struct {
	*tracker

	streamer Streamer
	boardID  string
	opts     Options
}

var _ Watcher = (*StreamWatcher)(nil)

// NewStreamWatcher creates a stream watcher for boardID. Options.Interval is
// the first reconnect delay.
func NewStreamWatcher(streamer Streamer, boardID string, opts Options) *StreamWatcher {
	opts = opts.withDefaults(defaultReconnectDelay)
	return &StreamWatcher{
		tracker:  newTracker(),
		streamer: streamer,
		boardID:  boardID,
		opts:     opts,
	}
}

// Run follows the stream until ctx is cancelled.
func (w *StreamWatcher) Run(ctx context.Context) error {
	logger := w.opts.Logger.WithField("board_id", w.boardID)
	delay := w.opts.Interval

	for {
		connected, err := w.follow(ctx)
		w.setConnected(false)
		if ctx.Err() != nil {
			logger.Debug("stream watcher stopped")
			return nil
		}
		if connected {
			delay = w.opts.Interval
		}
		logger.WithError(err).WithField("retry_in", delay).Warn("board stream closed")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// follow reads one stream connection to its end. It reports whether the
// server acknowledged the connection.
func (w *StreamWatcher) follow(ctx context.Context) (bool, error) {
	body, err := w.streamer.OpenBoardStream(ctx, w.boardID)
	if err != nil {
		return false, fmt.Errorf("failed to open board stream: %w", err)
	}
	defer body.Close()
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	connected := false
	err = readEvents(body, func(event, data string) {
		switch event {
		case EventConnection:
			connected = true
			w.setConnected(true)
		case EventBoardUpdate:
			w.handleUpdate(data)
		case EventHeartbeat:
		case EventError:
			w.opts.Logger.WithField("board_id", w.boardID).Warnf("stream error event: %s", data)
		}
	})
	if err == nil {
		err = io.EOF
	}
	return connected, err
}

func (w *StreamWatcher) handleUpdate(data string) {
	var update BoardUpdate
	if err := json.Unmarshal([]byte(data), &update); err != nil {
		w.opts.Logger.WithError(err).WithField("board_id", w.boardID).Warn("failed to decode board update")
		return
	}

	snap := board.NewSnapshot(update.Lists)
	if w.observe(snap) && w.opts.OnChange != nil {
		w.opts.OnChange(snap)
	}
}

// readEvents parses a text/event-stream body and calls fn for each complete
// event. Events without a name are reported as "message".
func readEvents(r io.Reader, fn func(event, data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	event := ""
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if data.Len() > 0 || event != "" {
				if event == "" {
					event = "message"
				}
				fn(event, strings.TrimSuffix(data.String(), "\n"))
			}
			event = ""
			data.Reset()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			data.WriteString(value)
			data.WriteByte('\n')
		}
	}

	err := scanner.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		return fmt.Errorf("event exceeds %d bytes: %w", maxEventSize, err)
	}
	return err
}
