package notif

import (
	"context"
	"log"
	"sync"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
)

// Store holds one user's notification list and unread badge count. All
// mutations are optimistic: the in-memory state flips first, the database
// write follows, and a failed write restores the previous state. The
// database stays the source of truth for the unread count.
type Store struct {
	mu     sync.Mutex
	userID string
	repo   dbmysql.NotificationRepository
	limit  int

	notifications []*dbmysql.Notification
	unreadCount   int64
	loading       bool
	lastErr       string

	// fetchSeq/appliedSeq order concurrent fetches so a slow response
	// can never overwrite the result of a newer one.
	fetchSeq   uint64
	appliedSeq uint64
}

func NewStore(userID string, repo dbmysql.NotificationRepository, limit int) *Store {
	return &Store{
		userID: userID,
		repo:   repo,
		limit:  limit,
	}
}

// Fetch replaces the whole list with the latest rows, newest first.
// Without a user it is a no-op. On failure the previous list is kept
// and the error is surfaced through Err.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return nil
	}
	s.fetchSeq++
	seq := s.fetchSeq
	s.loading = true
	s.mu.Unlock()

	notifications, err := s.repo.ByUserID(ctx, s.userID, s.limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.appliedSeq {
		// A newer fetch already landed; discard this result.
		return nil
	}
	s.appliedSeq = seq
	s.loading = false

	if err != nil {
		s.lastErr = "Failed to load notifications"
		log.Printf("notif: fetch for user %s failed: %v", s.userID, err)
		return err
	}

	s.notifications = notifications
	s.lastErr = ""
	return nil
}

// MarkAsRead flips one notification to read before the write lands and
// rolls the state back if the write fails.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return common.ErrAuthRequired
	}

	var target *dbmysql.Notification
	for _, n := range s.notifications {
		if n.ID == id {
			target = n
			break
		}
	}
	if target != nil && target.IsRead {
		// Already read locally; nothing to write.
		s.mu.Unlock()
		return nil
	}

	prevCount := s.unreadCount
	if target != nil {
		target.IsRead = true
		if s.unreadCount > 0 {
			s.unreadCount--
		}
	}
	s.mu.Unlock()

	// The cache only holds the newest page; the write still goes out
	// for rows outside the cached window.
	if err := s.repo.MarkAsRead(ctx, id, s.userID); err != nil {
		s.mu.Lock()
		if target != nil {
			target.IsRead = false
			s.unreadCount = prevCount
		}
		s.mu.Unlock()
		log.Printf("notif: mark read %s failed: %v", id, err)
		return err
	}

	s.RefreshUnreadCount(ctx)
	return nil
}

// MarkAllAsRead flips every loaded notification to read and zeroes the
// badge, restoring the snapshot if the write fails.
func (s *Store) MarkAllAsRead(ctx context.Context) error {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return common.ErrAuthRequired
	}

	prevRead := make(map[string]bool, len(s.notifications))
	for _, n := range s.notifications {
		prevRead[n.ID] = n.IsRead
		n.IsRead = true
	}
	prevCount := s.unreadCount
	s.unreadCount = 0
	s.mu.Unlock()

	if err := s.repo.MarkAllAsRead(ctx, s.userID); err != nil {
		s.mu.Lock()
		for _, n := range s.notifications {
			n.IsRead = prevRead[n.ID]
		}
		s.unreadCount = prevCount
		s.mu.Unlock()
		log.Printf("notif: mark all read for user %s failed: %v", s.userID, err)
		return err
	}

	return nil
}

// Delete removes the row first and only then drops it from the local
// list, so a failed delete never loses a visible notification.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return common.ErrAuthRequired
	}
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, id, s.userID); err != nil {
		log.Printf("notif: delete %s failed: %v", id, err)
		return err
	}

	s.mu.Lock()
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
	s.mu.Unlock()

	s.RefreshUnreadCount(ctx)
	return nil
}

// RefreshUnreadCount reloads the badge count from the database. Errors
// only log; a stale badge beats a broken flow.
func (s *Store) RefreshUnreadCount(ctx context.Context) {
	s.mu.Lock()
	if s.userID == "" {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	count, err := s.repo.UnreadCount(ctx, s.userID)
	if err != nil {
		log.Printf("notif: unread count for user %s failed: %v", s.userID, err)
		return
	}

	s.mu.Lock()
	s.unreadCount = count
	s.mu.Unlock()
}

func (s *Store) Notifications() []*dbmysql.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*dbmysql.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *Store) UnreadCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadCount
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) UserID() string {
	return s.userID
}
