package notif

import (
	"context"
	"log"
	"sync"
	"time"

	"soundbridge/internal/common"
	"soundbridge/internal/realtime"
)

// SubscriptionManager keeps one user's Store fresh. It listens on the
// change feed for low-latency updates and reconciles on a fixed ticker
// regardless, so a dead or never-established feed degrades to polling
// instead of silence. There is no reconnect logic on purpose.
type SubscriptionManager struct {
	store    *Store
	feed     common.ChangeFeed
	interval time.Duration

	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

func NewSubscriptionManager(store *Store, feed common.ChangeFeed, interval time.Duration) *SubscriptionManager {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SubscriptionManager{
		store:    store,
		feed:     feed,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start loads the initial state and begins the event loop. A failed
// feed subscription is logged and the loop runs on the ticker alone.
func (m *SubscriptionManager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	if err := m.store.Fetch(ctx); err != nil {
		log.Printf("notif: initial fetch for user %s failed: %v", m.store.UserID(), err)
	}
	m.store.RefreshUnreadCount(ctx)

	var events <-chan common.ChangeEvent
	sub, err := m.feed.Subscribe(ctx, realtime.NotificationChannel(m.store.UserID()))
	if err != nil {
		log.Printf("notif: subscribe for user %s failed, falling back to polling: %v", m.store.UserID(), err)
	} else {
		events = sub.Events()
	}

	go func() {
		defer close(m.done)
		if sub != nil {
			defer sub.Close()
		}

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					// Feed closed underneath us; the ticker carries on.
					events = nil
					continue
				}
				m.reconcile(ctx)
			case <-ticker.C:
				m.reconcile(ctx)
			}
		}
	}()
}

// reconcile re-reads the authoritative rows rather than trusting event
// payloads, which may be stale or partial.
func (m *SubscriptionManager) reconcile(ctx context.Context) {
	if err := m.store.Fetch(ctx); err != nil {
		return
	}
	m.store.RefreshUnreadCount(ctx)
}

// Stop shuts the loop down and is safe to call more than once.
func (m *SubscriptionManager) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		<-m.done
	})
}
