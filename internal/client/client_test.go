package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/auth"
	"taskboard/internal/board"
	"taskboard/internal/events"
	"taskboard/internal/handlers"
	"taskboard/internal/models"
	"taskboard/internal/reorder"
	"taskboard/internal/store"
	"taskboard/internal/watch"
)

type server struct {
	url   string
	auth  *auth.Auth
	store *store.SQLiteStore
}

func newServer(t *testing.T) *server {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	a, err := auth.New(nil, []byte("client-test-secret"), "", "")
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	h := handlers.New(s, a, events.NewMemoryBroker(), handlers.Options{Logger: logger})
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &server{url: srv.URL, auth: a, store: s}
}

func (s *server) client(t *testing.T, userID string) *Client {
	t.Helper()
	token, err := s.auth.Sign(auth.Identity{UserID: userID}, time.Hour)
	require.NoError(t, err)
	return New(s.url+"/", token)
}

// seed builds a board owned by "owner" with lists A=[1,2,3] and B=[4,5].
func seed(t *testing.T, c *Client) (*models.Board, map[string]string) {
	t.Helper()
	ctx := context.Background()
	b, err := c.CreateBoard(ctx, "Roadmap", true)
	require.NoError(t, err)

	ids := map[string]string{}
	for _, l := range []struct {
		title string
		cards []string
	}{{"A", []string{"1", "2", "3"}}, {"B", []string{"4", "5"}}} {
		list, err := c.CreateList(ctx, b.ID, l.title)
		require.NoError(t, err)
		ids[l.title] = list.ID
		for _, title := range l.cards {
			card, err := c.CreateCard(ctx, list.ID, models.Card{Title: title})
			require.NoError(t, err)
			ids[title] = card.ID
		}
	}
	return b, ids
}

func titles(lists []models.ListWithCards, li int) []string {
	out := []string{}
	for _, c := range lists[li].Cards {
		out = append(out, c.Title)
	}
	return out
}

func TestClient_BoardListsAndMove(t *testing.T) {
	srv := newServer(t)
	c := srv.client(t, "owner")
	b, ids := seed(t, c)
	ctx := context.Background()

	got, err := c.GetBoard(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", got.Title)
	assert.True(t, got.Private)

	boards, err := c.ListBoards(ctx)
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, b.ID, boards[0].ID)

	lists, err := c.BoardLists(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, []string{"1", "2", "3"}, titles(lists, 0))

	require.NoError(t, c.MoveCard(ctx, ids["2"], ids["B"], 1))

	lists, err = c.BoardLists(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, titles(lists, 0))
	assert.Equal(t, []string{"4", "2", "5"}, titles(lists, 1))
}

func TestClient_Errors(t *testing.T) {
	srv := newServer(t)
	b, ids := seed(t, srv.client(t, "owner"))
	stranger := srv.client(t, "mallory")
	ctx := context.Background()

	_, err := stranger.BoardLists(ctx, b.ID)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusForbidden))

	err = stranger.MoveCard(ctx, ids["1"], ids["B"], 0)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "You do not have access to this board", apiErr.UserMessage())

	anonymous := New(srv.url, "")
	_, err = anonymous.ListBoards(ctx)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
}

type recordingNotifier struct {
	errors    []string
	successes []string
}

func (n *recordingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }

func TestClient_DrivesReorderEngine(t *testing.T) {
	srv := newServer(t)
	owner := srv.client(t, "owner")
	b, ids := seed(t, owner)
	ctx := context.Background()

	lists, err := owner.BoardLists(ctx, b.ID)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	notifier := &recordingNotifier{}
	engine := reorder.NewEngine(board.NewSnapshot(lists), owner, notifier, logger)

	res := engine.EndDrag(ctx, ids["1"], ids["B"])
	require.Equal(t, reorder.OutcomeCommitted, res.Outcome, "err: %v", res.Err)
	assert.Equal(t, []string{"Card moved"}, notifier.successes)

	server, err := owner.BoardLists(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, board.ComputeFingerprint(engine.Snapshot()), board.ComputeFingerprint(board.NewSnapshot(server)),
		"optimistic snapshot matches the server after commit")

	// A member removed mid-session sees the server's rejection and a rollback.
	stranger := srv.client(t, "mallory")
	strangerEngine := reorder.NewEngine(board.NewSnapshot(server), stranger, notifier, logger)
	before := strangerEngine.Snapshot()

	res = strangerEngine.EndDrag(ctx, ids["2"], ids["4"])
	assert.Equal(t, reorder.OutcomeRolledBack, res.Outcome)
	assert.Equal(t, before, strangerEngine.Snapshot())
	assert.Equal(t, []string{"You do not have access to this board"}, notifier.errors)
}

func TestClient_StreamFeedsWatcher(t *testing.T) {
	srv := newServer(t)
	owner := srv.client(t, "owner")
	b, ids := seed(t, owner)

	logger, _ := test.NewNullLogger()
	changes := make(chan board.Snapshot, 8)
	w := watch.NewStreamWatcher(owner, b.ID, watch.Options{
		Logger:   logger,
		OnChange: func(s board.Snapshot) { changes <- s },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := <-changes
	assert.Equal(t, []string{"1", "2", "3"}, titles(first.Lists, 0))
	assert.True(t, w.Connected())

	require.NoError(t, owner.MoveCard(context.Background(), ids["3"], ids["A"], 0))

	select {
	case next := <-changes:
		assert.Equal(t, []string{"3", "1", "2"}, titles(next.Lists, 0))
	case <-time.After(2 * time.Second):
		t.Fatal("expected a pushed update after the move")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestClient_PollerAgainstServer(t *testing.T) {
	srv := newServer(t)
	owner := srv.client(t, "owner")
	b, _ := seed(t, owner)

	logger, _ := test.NewNullLogger()
	p := watch.NewPoller(owner, b.ID, watch.Options{Logger: logger})

	assert.True(t, p.Poll(context.Background()))
	assert.False(t, p.Poll(context.Background()))
	assert.True(t, p.Connected())

	broken := watch.NewPoller(New(srv.url, "bad.token.value"), b.ID, watch.Options{Logger: logger})
	assert.False(t, broken.Poll(context.Background()))
	assert.False(t, broken.Connected())
}
