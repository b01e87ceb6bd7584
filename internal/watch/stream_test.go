package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/board"
)

func TestReadEvents(t *testing.T) {
	input := ":ok\n\n" +
		"event: connection\ndata: {\"boardId\":\"b1\"}\n\n" +
		"event: board_update\ndata: {\"lists\":[],\ndata: \"timestamp\":1}\n\n" +
		"data: plain\n\n" +
		"event: heartbeat\ndata:{}\n\n"

	type ev struct{ name, data string }
	var got []ev
	err := readEvents(strings.NewReader(input), func(name, data string) {
		got = append(got, ev{name, data})
	})

	require.NoError(t, err)
	assert.Equal(t, []ev{
		{"connection", `{"boardId":"b1"}`},
		{"board_update", "{\"lists\":[],\n\"timestamp\":1}"},
		{"message", "plain"},
		{"heartbeat", "{}"},
	}, got)
}

type pipeStreamer struct {
	mu     sync.Mutex
	opens  int
	fail   error
	writer *io.PipeWriter
	opened chan struct{}
}

func newPipeStreamer() *pipeStreamer {
	return &pipeStreamer{opened: make(chan struct{}, 8)}
}

func (s *pipeStreamer) OpenBoardStream(ctx context.Context, boardID string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if s.fail != nil {
		return nil, s.fail
	}
	r, w := io.Pipe()
	s.writer = w
	s.opened <- struct{}{}
	return r, nil
}

func (s *pipeStreamer) send(t *testing.T, event string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	s.mu.Lock()
	w := s.writer
	s.mu.Unlock()
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	require.NoError(t, err)
}

func (s *pipeStreamer) openCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

func newTestStreamWatcher(s Streamer, opts Options) *StreamWatcher {
	logger, _ := test.NewNullLogger()
	opts.Logger = logger
	return NewStreamWatcher(s, "board-1", opts)
}

func TestStreamWatcher_AppliesBoardUpdates(t *testing.T) {
	streamer := newPipeStreamer()
	changes := make(chan board.Snapshot, 4)
	w := newTestStreamWatcher(streamer, Options{OnChange: func(s board.Snapshot) { changes <- s }})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	<-streamer.opened
	streamer.send(t, EventConnection, map[string]string{"boardId": "board-1"})
	require.Eventually(t, w.Connected, time.Second, time.Millisecond)

	streamer.send(t, EventBoardUpdate, BoardUpdate{Lists: lists("1", "2"), Timestamp: 1})
	streamer.send(t, EventHeartbeat, map[string]int64{"timestamp": 2})
	streamer.send(t, EventBoardUpdate, BoardUpdate{Lists: lists("1", "2"), Timestamp: 3})
	streamer.send(t, EventBoardUpdate, BoardUpdate{Lists: lists("2", "1"), Timestamp: 4})

	first := <-changes
	assert.Equal(t, []string{"1", "2"}, first.CardIDs(0))
	second := <-changes
	assert.Equal(t, []string{"2", "1"}, second.CardIDs(0))
	assert.Empty(t, changes, "identical update must not replace the snapshot")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, w.Connected())
}

func TestStreamWatcher_ReconnectsAfterClose(t *testing.T) {
	streamer := newPipeStreamer()
	w := newTestStreamWatcher(streamer, Options{Interval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	<-streamer.opened
	streamer.send(t, EventConnection, map[string]string{})
	require.Eventually(t, w.Connected, time.Second, time.Millisecond)

	streamer.mu.Lock()
	streamer.writer.Close()
	streamer.mu.Unlock()

	<-streamer.opened
	assert.Equal(t, 2, streamer.openCount())

	cancel()
	<-done
}

func TestStreamWatcher_OpenFailureStaysDisconnected(t *testing.T) {
	streamer := newPipeStreamer()
	streamer.fail = errors.New("401 unauthorized")
	w := newTestStreamWatcher(streamer, Options{Interval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return streamer.openCount() >= 2 }, time.Second, time.Millisecond)
	assert.False(t, w.Connected())

	cancel()
	<-done
}
