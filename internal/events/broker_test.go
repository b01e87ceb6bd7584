package events

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
)

func receive(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a signal")
	}
}

func expectNone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("unexpected signal")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestMemoryBroker_PublishReachesBoardSubscribers(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	a, unsubA := b.Subscribe(ctx, "board-a")
	defer unsubA()
	other, unsubOther := b.Subscribe(ctx, "board-b")
	defer unsubOther()

	if err := b.Publish(ctx, "board-a"); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	receive(t, a)
	expectNone(t, other)
}

func TestMemoryBroker_CoalescesSignals(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()
	ch, unsub := b.Subscribe(ctx, "board-a")
	defer unsub()

	b.Publish(ctx, "board-a")
	b.Publish(ctx, "board-a")
	b.Publish(ctx, "board-a")

	receive(t, ch)
	expectNone(t, ch)
}

func TestMemoryBroker_Unsubscribe(t *testing.T) {
	b := NewMemoryBroker()

	_, unsub := b.Subscribe(context.Background(), "board-a")
	if got := b.Subscribers("board-a"); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}
	unsub()
	unsub()
	if got := b.Subscribers("board-a"); got != 0 {
		t.Fatalf("expected 0 subscribers, got %d", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	_, unsub = b.Subscribe(ctx, "board-a")
	defer unsub()
	cancel()
	deadline := time.Now().Add(time.Second)
	for b.Subscribers("board-a") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released after context cancel")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRedisBroker_RelaysPublish(t *testing.T) {
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer m.Close()
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	defer rc.Close()

	logger, _ := test.NewNullLogger()
	b := NewRedisBroker(rc, "", logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	readyCtx, readyCancel := context.WithTimeout(ctx, time.Second)
	defer readyCancel()
	if err := b.Ready(readyCtx); err != nil {
		t.Fatalf("subscription not ready: %v", err)
	}

	ch, unsub := b.Subscribe(ctx, "board-1")
	defer unsub()

	if err := b.Publish(context.Background(), "board-1"); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	receive(t, ch)

	b.Publish(context.Background(), "board-2")
	expectNone(t, ch)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit")
	}
}
