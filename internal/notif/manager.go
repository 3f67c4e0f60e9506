package notif

import (
	"context"
	"sync"
	"time"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
)

type session struct {
	store *Store
	sub   *SubscriptionManager
}

// SessionManager owns one Store and subscription per signed-in user.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	repo     dbmysql.NotificationRepository
	feed     common.ChangeFeed
	interval time.Duration
	limit    int
}

func NewSessionManager(repo dbmysql.NotificationRepository, feed common.ChangeFeed, interval time.Duration, limit int) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*session),
		repo:     repo,
		feed:     feed,
		interval: interval,
		limit:    limit,
	}
}

// Store returns the user's store, opening a session on first use.
func (m *SessionManager) Store(_ context.Context, userID string) *Store {
	m.mu.RLock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.RUnlock()
		return s.store
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s.store
	}

	store := NewStore(userID, m.repo, m.limit)
	sub := NewSubscriptionManager(store, m.feed, m.interval)
	// The session outlives the request that opened it; its loop runs
	// until Close or Shutdown.
	sub.Start(context.Background())

	m.sessions[userID] = &session{store: store, sub: sub}
	return store
}

// Close tears down one user's session. Unknown users are a no-op.
func (m *SessionManager) Close(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if ok {
		s.sub.Stop()
	}
}

// Shutdown stops every open session.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.sub.Stop()
	}
}
