package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultChannel is the Redis pub/sub channel carrying board ids.
const DefaultChannel = "board-updates"

// RedisBroker shares board change signals between server instances through
// Redis pub/sub. Run must be running for subscribers to receive signals.
type RedisBroker struct {
	rc      *redis.Client
	channel string
	local   *MemoryBroker
	logger  log.FieldLogger
}

var _ Broker = (*RedisBroker)(nil)

// NewRedisBroker creates a broker publishing on channel.
func NewRedisBroker(rc *redis.Client, channel string, logger log.FieldLogger) *RedisBroker {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &RedisBroker{rc: rc, channel: channel, local: NewMemoryBroker(), logger: logger}
}

// Publish announces a change of boardID to every instance.
func (b *RedisBroker) Publish(ctx context.Context, boardID string) error {
	if err := b.rc.Publish(ctx, b.channel, boardID).Err(); err != nil {
		return fmt.Errorf("failed to publish board update: %w", err)
	}
	return nil
}

// Subscribe registers a local subscriber.
func (b *RedisBroker) Subscribe(ctx context.Context, boardID string) (<-chan struct{}, func()) {
	return b.local.Subscribe(ctx, boardID)
}

// Run relays messages from Redis to local subscribers until ctx is done,
// resubscribing when the pub/sub channel closes.
func (b *RedisBroker) Run(ctx context.Context) error {
	for {
		sub := b.rc.Subscribe(ctx, b.channel)
		ch := sub.Channel()
	relay:
		for {
			select {
			case <-ctx.Done():
				sub.Close()
				return nil
			case msg, ok := <-ch:
				if !ok {
					break relay
				}
				b.local.Publish(ctx, msg.Payload)
			}
		}
		sub.Close()
		if ctx.Err() != nil {
			return nil
		}
		b.logger.Error("pubsub channel closed, resubscribing")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

// Ready blocks until the subscription to the channel is confirmed.
func (b *RedisBroker) Ready(ctx context.Context) error {
	for {
		n, err := b.rc.PubSubNumSub(ctx, b.channel).Result()
		if err != nil {
			return fmt.Errorf("failed to query subscribers: %w", err)
		}
		if n[b.channel] > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
