package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/internal/store"
)

type sseEvent struct {
	name string
	data string
}

// readEvent reads the next named event from an SSE stream.
func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("failed to read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data += strings.TrimPrefix(line, "data: ")
		}
	}
}

func openStream(t *testing.T, ctx context.Context, env *testEnv, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	return resp
}

func TestBoardStream_PushesUpdates(t *testing.T) {
	env := setupTestHandlers(t)
	seed := env.seedBoard(t, true, map[string][]string{"A": {"1", "2"}, "B": nil}, "A", "B")
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	url := srv.URL + "/api/boards/" + seed.board.ID + "/stream?token=" + env.token(t, "owner")
	resp := openStream(t, ctx, env, url)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}

	r := bufio.NewReader(resp.Body)
	if ev := readEvent(t, r); ev.name != "connection" {
		t.Fatalf("expected connection event first, got %q", ev.name)
	}

	ev := readEvent(t, r)
	if ev.name != "board_update" {
		t.Fatalf("expected initial board_update, got %q", ev.name)
	}
	var update BoardListsResponse
	if err := json.Unmarshal([]byte(ev.data), &update); err != nil {
		t.Fatalf("failed to decode board_update: %v", err)
	}
	if got := cardOrder(update.Lists, "A"); got != "1,2" {
		t.Errorf("expected A=1,2, got %s", got)
	}

	// Wait for the subscription before publishing.
	deadline := time.Now().Add(time.Second)
	for env.broker.Subscribers(seed.board.ID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream did not subscribe")
		}
		time.Sleep(time.Millisecond)
	}

	moveCtx := store.WithActor(context.Background(), "owner")
	if err := env.store.MoveCard(moveCtx, seed.cards["2"].ID, seed.lists["B"].ID, 0); err != nil {
		t.Fatalf("MoveCard failed: %v", err)
	}
	env.broker.Publish(context.Background(), seed.board.ID)

	ev = readEvent(t, r)
	if ev.name != "board_update" {
		t.Fatalf("expected board_update after move, got %q", ev.name)
	}
	if err := json.Unmarshal([]byte(ev.data), &update); err != nil {
		t.Fatalf("failed to decode board_update: %v", err)
	}
	if got := cardOrder(update.Lists, "B"); got != "2" {
		t.Errorf("expected B=2, got %s", got)
	}

	cancel()
	deadline = time.Now().Add(time.Second)
	for env.broker.Subscribers(seed.board.ID) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream handler did not exit after client abort")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBoardStream_SkipsUnchangedBoards(t *testing.T) {
	env := setupTestHandlers(t)
	env.h.streamCheck = 5 * time.Millisecond
	env.h.streamHeartbeat = 20 * time.Millisecond
	seed := env.seedBoard(t, true, map[string][]string{"A": {"1"}}, "A")
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp := openStream(t, ctx, env, srv.URL+"/api/boards/"+seed.board.ID+"/stream?token="+env.token(t, "owner"))
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	readEvent(t, r)
	if ev := readEvent(t, r); ev.name != "board_update" {
		t.Fatalf("expected board_update, got %q", ev.name)
	}
	if ev := readEvent(t, r); ev.name != "heartbeat" {
		t.Errorf("expected only a heartbeat while the board is unchanged, got %q", ev.name)
	}
}

func TestBoardStream_RequiresAccess(t *testing.T) {
	env := setupTestHandlers(t)
	seed := env.seedBoard(t, true, nil, "A")

	rec := env.do(t, "mallory", "GET", "/api/boards/"+seed.board.ID+"/stream", "")

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}
