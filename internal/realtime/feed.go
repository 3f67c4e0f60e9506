package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"soundbridge/internal/common"
)

// NotificationChannel names the pub/sub channel carrying one user's
// notification change events.
func NotificationChannel(userID string) string {
	return "notifications:user:" + userID
}

// MessageChannel names the pub/sub channel carrying one user's message
// change events.
func MessageChannel(userID string) string {
	return "messages:user:" + userID
}

// RedisFeed implements common.ChangeFeed on redis pub/sub. Events are
// JSON on the wire; undecodable payloads are dropped with a log line.
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func (f *RedisFeed) Publish(ctx context.Context, channel string, event common.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode change event: %w", err)
	}

	if err := f.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, channel string) (common.FeedSubscription, error) {
	pubsub := f.client.Subscribe(ctx, channel)

	// Force the SUBSCRIBE round trip so a dead broker fails here, not
	// silently in the receive loop.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan common.ChangeEvent, 16),
		done:   make(chan struct{}),
	}
	go sub.pump(pubsub.Channel())

	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan common.ChangeEvent
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) pump(messages <-chan *redis.Message) {
	defer close(s.events)

	for msg := range messages {
		var event common.ChangeEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("realtime: dropping undecodable event on %s: %v", msg.Channel, err)
			continue
		}
		select {
		case s.events <- event:
		case <-s.done:
			// The receiver is gone; stop instead of blocking on a
			// full buffer.
			return
		}
	}
}

func (s *redisSubscription) Events() <-chan common.ChangeEvent {
	return s.events
}

func (s *redisSubscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.pubsub.Close()
}
