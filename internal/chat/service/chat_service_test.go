package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Save(ctx context.Context, msg *dbmysql.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockChatRepository) ByID(ctx context.Context, id string) (*dbmysql.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmysql.Message), args.Error(1)
}

func (m *MockChatRepository) ListForUser(ctx context.Context, userID string) ([]*dbmysql.Message, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbmysql.Message), args.Error(1)
}

func (m *MockChatRepository) ListBetween(ctx context.Context, userA, userB string, limit int) ([]*dbmysql.Message, error) {
	args := m.Called(ctx, userA, userB, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbmysql.Message), args.Error(1)
}

func (m *MockChatRepository) MarkManyRead(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockChatRepository) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

type memorySubscription struct {
	events chan common.ChangeEvent
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan common.ChangeEvent { return s.events }

func (s *memorySubscription) Close() error {
	s.once.Do(func() { close(s.events) })
	return nil
}

type memoryFeed struct {
	mu        sync.Mutex
	subs      map[string]*memorySubscription
	published map[string][]common.ChangeEvent
}

func newMemoryFeed() *memoryFeed {
	return &memoryFeed{
		subs:      make(map[string]*memorySubscription),
		published: make(map[string][]common.ChangeEvent),
	}
}

func (f *memoryFeed) Subscribe(ctx context.Context, channel string) (common.FeedSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &memorySubscription{events: make(chan common.ChangeEvent, 16)}
	f.subs[channel] = sub
	return sub, nil
}

func (f *memoryFeed) Publish(ctx context.Context, channel string, event common.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[channel] = append(f.published[channel], event)
	if sub, ok := f.subs[channel]; ok {
		sub.events <- event
	}
	return nil
}

func (f *memoryFeed) channelEvents(channel string) []common.ChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]common.ChangeEvent, len(f.published[channel]))
	copy(out, f.published[channel])
	return out
}

func profile(id, username string) *dbmysql.Profile {
	return &dbmysql.Profile{ID: id, Username: username, DisplayName: username}
}

func message(id, senderID, recipientID string, createdAt time.Time, isRead bool) *dbmysql.Message {
	return &dbmysql.Message{
		ID:          id,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     "hey",
		MessageType: common.MessageText,
		IsRead:      isRead,
		CreatedAt:   createdAt,
		Sender:      profile(senderID, senderID),
		Recipient:   profile(recipientID, recipientID),
	}
}

func TestConversationKey_IsSymmetric(t *testing.T) {
	assert.Equal(t, "alice_bob", ConversationKey("alice", "bob"))
	assert.Equal(t, "alice_bob", ConversationKey("bob", "alice"))
}

func TestGetConversations_GroupsByPair(t *testing.T) {
	repo := new(MockChatRepository)
	svc := NewChatService(repo, newMemoryFeed())

	base := time.Now()
	// Deliberately shuffled: grouping must compare timestamps, not
	// trust slice order.
	repo.On("ListForUser", mock.Anything, "u1").Return([]*dbmysql.Message{
		message("m2", "u2", "u1", base.Add(-2*time.Hour), false),
		message("m5", "u1", "u3", base.Add(-30*time.Minute), true),
		message("m3", "u2", "u1", base.Add(-1*time.Hour), false),
		message("m1", "u1", "u2", base.Add(-3*time.Hour), true),
		message("m4", "u3", "u1", base.Add(-4*time.Hour), false),
	}, nil)

	conversations, err := svc.GetConversations(context.Background(), "u1")

	assert.NoError(t, err)
	assert.Len(t, conversations, 2)

	// Newest conversation first.
	assert.Equal(t, "u1_u3", conversations[0].ID)
	assert.Equal(t, "m5", conversations[0].LastMessage.ID)
	assert.Equal(t, "u3", conversations[0].OtherUser.ID)
	assert.Equal(t, 1, conversations[0].UnreadCount)

	assert.Equal(t, "u1_u2", conversations[1].ID)
	assert.Equal(t, "m3", conversations[1].LastMessage.ID)
	assert.Equal(t, "u2", conversations[1].OtherUser.ID)
	assert.Equal(t, 2, conversations[1].UnreadCount)
}

func TestGetConversations_RequiresUser(t *testing.T) {
	svc := NewChatService(new(MockChatRepository), newMemoryFeed())

	_, err := svc.GetConversations(context.Background(), "")

	assert.ErrorIs(t, err, common.ErrAuthRequired)
}

func TestGetMessages_EagerlyMarksUnreadRead(t *testing.T) {
	repo := new(MockChatRepository)
	svc := NewChatService(repo, newMemoryFeed())

	base := time.Now()
	repo.On("ListBetween", mock.Anything, "u1", "u2", 0).Return([]*dbmysql.Message{
		message("m1", "u1", "u2", base.Add(-2*time.Hour), true),
		message("m2", "u2", "u1", base.Add(-1*time.Hour), false),
		message("m3", "u2", "u1", base, false),
	}, nil)
	repo.On("MarkManyRead", mock.Anything, []string{"m2", "m3"}).Return(nil)

	messages, err := svc.GetMessages(context.Background(), "u1", "u2", 0)

	assert.NoError(t, err)
	assert.Len(t, messages, 3)
	for _, msg := range messages {
		if msg.RecipientID == "u1" {
			assert.True(t, msg.IsRead)
			assert.NotNil(t, msg.ReadAt)
		}
	}
	repo.AssertExpectations(t)
}

func TestGetMessages_MarkReadFailureStillReturnsThread(t *testing.T) {
	repo := new(MockChatRepository)
	svc := NewChatService(repo, newMemoryFeed())

	repo.On("ListBetween", mock.Anything, "u1", "u2", 0).Return([]*dbmysql.Message{
		message("m1", "u2", "u1", time.Now(), false),
	}, nil)
	repo.On("MarkManyRead", mock.Anything, []string{"m1"}).Return(errors.New("db down"))

	messages, err := svc.GetMessages(context.Background(), "u1", "u2", 0)

	assert.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.False(t, messages[0].IsRead)
}

func TestGetMessages_NoUnreadSkipsMarkRead(t *testing.T) {
	repo := new(MockChatRepository)
	svc := NewChatService(repo, newMemoryFeed())

	repo.On("ListBetween", mock.Anything, "u1", "u2", 0).Return([]*dbmysql.Message{
		message("m1", "u1", "u2", time.Now(), false),
	}, nil)

	_, err := svc.GetMessages(context.Background(), "u1", "u2", 0)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "MarkManyRead", mock.Anything, mock.Anything)
}

func TestSendMessage(t *testing.T) {
	repo := new(MockChatRepository)
	feed := newMemoryFeed()
	svc := NewChatService(repo, feed)

	var savedID string
	repo.On("Save", mock.Anything, mock.AnythingOfType("*dbmysql.Message")).
		Run(func(args mock.Arguments) {
			msg := args.Get(1).(*dbmysql.Message)
			savedID = msg.ID
			assert.False(t, msg.IsRead)
		}).Return(nil)
	repo.On("ByID", mock.Anything, mock.AnythingOfType("string")).
		Return(message("enriched", "u1", "u2", time.Now(), false), nil)

	msg, err := svc.SendMessage(context.Background(), SendMessageInput{
		SenderID:    "u1",
		RecipientID: "u2",
		Content:     "hey",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, savedID)
	assert.NotNil(t, msg.Sender)
	assert.NotNil(t, msg.Recipient)

	// Both sides hear about the new message.
	assert.Len(t, feed.channelEvents("messages:user:u2"), 1)
	assert.Len(t, feed.channelEvents("messages:user:u1"), 1)
}

func TestSendMessage_Validation(t *testing.T) {
	repo := new(MockChatRepository)
	svc := NewChatService(repo, newMemoryFeed())

	_, err := svc.SendMessage(context.Background(), SendMessageInput{RecipientID: "u2", Content: "hi"})
	assert.ErrorIs(t, err, common.ErrAuthRequired)

	_, err = svc.SendMessage(context.Background(), SendMessageInput{SenderID: "u1", Content: "hi"})
	assert.Error(t, err)

	_, err = svc.SendMessage(context.Background(), SendMessageInput{SenderID: "u1", RecipientID: "u1", Content: "hi"})
	assert.Error(t, err)

	_, err = svc.SendMessage(context.Background(), SendMessageInput{SenderID: "u1", RecipientID: "u2", Content: "   "})
	assert.Error(t, err)

	_, err = svc.SendMessage(context.Background(), SendMessageInput{
		SenderID: "u1", RecipientID: "u2", Content: "hi", MessageType: "hologram",
	})
	assert.Error(t, err)

	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSubscribeToMessages_RefetchesRowForEachEvent(t *testing.T) {
	repo := new(MockChatRepository)
	feed := newMemoryFeed()
	svc := NewChatService(repo, feed)

	enriched := message("m1", "u2", "u1", time.Now(), false)
	repo.On("ByID", mock.Anything, "m1").Return(enriched, nil)

	received := make(chan *dbmysql.Message, 1)
	sub, err := svc.SubscribeToMessages(context.Background(), "u1", func(msg *dbmysql.Message) {
		received <- msg
	})
	assert.NoError(t, err)
	defer sub.Close()

	feed.Publish(context.Background(), "messages:user:u1", common.ChangeEvent{
		Table: "messages",
		Op:    common.OpInsert,
		RowID: "m1",
	})

	select {
	case msg := <-received:
		assert.Equal(t, "m1", msg.ID)
		assert.NotNil(t, msg.Sender)
	case <-time.After(time.Second):
		t.Fatal("message event never delivered")
	}
}

func TestUnreadCount(t *testing.T) {
	repo := new(MockChatRepository)
	svc := NewChatService(repo, newMemoryFeed())

	repo.On("UnreadCount", mock.Anything, "u1").Return(int64(4), nil)

	count, err := svc.UnreadCount(context.Background(), "u1")

	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)

	_, err = svc.UnreadCount(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrAuthRequired)
}
