package common

import (
	"context"
)

// ChangeOp is the operation kind carried by a change-feed event.
type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)

// ChangeEvent signals that a row changed. It carries only enough identity
// to justify a re-fetch; consumers must never use it as the payload.
type ChangeEvent struct {
	Table string   `json:"table"`
	Op    ChangeOp `json:"op"`
	RowID string   `json:"row_id"`
}

// FeedSubscription is a live change-feed channel for one subscriber.
// Close is idempotent.
type FeedSubscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// ChangeFeed is the push channel between the write path and signed-in
// sessions. Delivery is best-effort; the periodic refresh is the
// correctness guarantee.
type ChangeFeed interface {
	Subscribe(ctx context.Context, channel string) (FeedSubscription, error)
	Publish(ctx context.Context, channel string, event ChangeEvent) error
}

// Pusher displays a notification outside the in-app list (desktop or
// device push). Implementations are best-effort and must never block the
// write path on failure.
type Pusher interface {
	Push(ctx context.Context, userID, title, body, actionURL string) error
}
