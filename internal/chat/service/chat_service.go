package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"soundbridge/internal/chat/repository"
	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
	"soundbridge/internal/realtime"
)

// Conversation is a derived view: messages are stored flat and grouped
// here by participant pair.
type Conversation struct {
	ID          string           `json:"id"`
	OtherUser   *dbmysql.Profile `json:"other_user"`
	LastMessage *dbmysql.Message `json:"last_message"`
	UnreadCount int              `json:"unread_count"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type ChatService interface {
	GetConversations(ctx context.Context, userID string) ([]*Conversation, error)
	GetMessages(ctx context.Context, userID, otherUserID string, limit int) ([]*dbmysql.Message, error)
	SendMessage(ctx context.Context, input SendMessageInput) (*dbmysql.Message, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	SubscribeToMessages(ctx context.Context, userID string, onMessage func(*dbmysql.Message)) (common.FeedSubscription, error)
}

type SendMessageInput struct {
	SenderID       string
	RecipientID    string
	Content        string
	MessageType    common.MessageContentType
	AttachmentURL  *string
	AttachmentType *string
	AttachmentName *string
}

type chatService struct {
	repo repository.ChatRepository
	feed common.ChangeFeed
}

func NewChatService(repo repository.ChatRepository, feed common.ChangeFeed) ChatService {
	return &chatService{repo: repo, feed: feed}
}

// ConversationKey is the canonical id for a participant pair: the two
// ids sorted lexicographically and joined with an underscore, so both
// sides derive the same key.
func ConversationKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + "_" + userB
}

func (s *chatService) GetConversations(ctx context.Context, userID string) ([]*Conversation, error) {
	if userID == "" {
		return nil, common.ErrAuthRequired
	}

	messages, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*Conversation)
	for _, msg := range messages {
		key := ConversationKey(msg.SenderID, msg.RecipientID)

		conv, ok := grouped[key]
		if !ok {
			conv = &Conversation{ID: key}
			grouped[key] = conv
		}

		// Compare timestamps instead of trusting query order so the
		// grouping survives any reordering upstream.
		if conv.LastMessage == nil || msg.CreatedAt.After(conv.LastMessage.CreatedAt) {
			conv.LastMessage = msg
			conv.UpdatedAt = msg.CreatedAt
			if msg.SenderID == userID {
				conv.OtherUser = msg.Recipient
			} else {
				conv.OtherUser = msg.Sender
			}
		}

		if msg.RecipientID == userID && !msg.IsRead {
			conv.UnreadCount++
		}
	}

	conversations := make([]*Conversation, 0, len(grouped))
	for _, conv := range grouped {
		conversations = append(conversations, conv)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})

	return conversations, nil
}

// GetMessages returns the thread oldest first and eagerly marks the
// caller's unread messages read in one batch. Viewing a thread is
// reading it.
func (s *chatService) GetMessages(ctx context.Context, userID, otherUserID string, limit int) ([]*dbmysql.Message, error) {
	if userID == "" {
		return nil, common.ErrAuthRequired
	}
	if otherUserID == "" {
		return nil, errors.New("other user id is required")
	}

	messages, err := s.repo.ListBetween(ctx, userID, otherUserID, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var unreadIDs []string
	for _, msg := range messages {
		if msg.RecipientID == userID && !msg.IsRead {
			unreadIDs = append(unreadIDs, msg.ID)
		}
	}

	if len(unreadIDs) > 0 {
		if err := s.repo.MarkManyRead(ctx, unreadIDs); err != nil {
			// The thread still renders; the unread rows stay unread.
			log.Printf("chat: eager mark-read for user %s failed: %v", userID, err)
		} else {
			for _, msg := range messages {
				if msg.RecipientID == userID && !msg.IsRead {
					msg.IsRead = true
					msg.ReadAt = &now
				}
			}
			s.publish(ctx, realtime.MessageChannel(otherUserID), common.ChangeEvent{
				Table: "messages",
				Op:    common.OpUpdate,
				RowID: unreadIDs[0],
			})
		}
	}

	return messages, nil
}

func (s *chatService) SendMessage(ctx context.Context, input SendMessageInput) (*dbmysql.Message, error) {
	if input.SenderID == "" {
		return nil, common.ErrAuthRequired
	}
	if input.RecipientID == "" {
		return nil, errors.New("recipient id is required")
	}
	if input.SenderID == input.RecipientID {
		return nil, errors.New("cannot message yourself")
	}
	if strings.TrimSpace(input.Content) == "" && input.AttachmentURL == nil {
		return nil, errors.New("message content is required")
	}

	msgType := input.MessageType
	if msgType == "" {
		msgType = common.MessageText
	}
	if !msgType.IsValid() {
		return nil, fmt.Errorf("invalid message type: %s", msgType)
	}

	msg := &dbmysql.Message{
		ID:             uuid.New().String(),
		SenderID:       input.SenderID,
		RecipientID:    input.RecipientID,
		Content:        input.Content,
		MessageType:    msgType,
		AttachmentURL:  input.AttachmentURL,
		AttachmentType: input.AttachmentType,
		AttachmentName: input.AttachmentName,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}

	// Re-read with profiles joined so the caller gets the enriched row.
	saved, err := s.repo.ByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	event := common.ChangeEvent{
		Table: "messages",
		Op:    common.OpInsert,
		RowID: saved.ID,
	}
	s.publish(ctx, realtime.MessageChannel(input.RecipientID), event)
	s.publish(ctx, realtime.MessageChannel(input.SenderID), event)

	return saved, nil
}

func (s *chatService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, common.ErrAuthRequired
	}
	return s.repo.UnreadCount(ctx, userID)
}

// SubscribeToMessages invokes onMessage with the authoritative row for
// every message event. The payload only carries the row id; the row is
// re-read so consumers never act on stale event data.
func (s *chatService) SubscribeToMessages(ctx context.Context, userID string, onMessage func(*dbmysql.Message)) (common.FeedSubscription, error) {
	if userID == "" {
		return nil, common.ErrAuthRequired
	}

	sub, err := s.feed.Subscribe(ctx, realtime.MessageChannel(userID))
	if err != nil {
		return nil, err
	}

	go func() {
		for event := range sub.Events() {
			if event.Op == common.OpDelete {
				continue
			}
			msg, err := s.repo.ByID(ctx, event.RowID)
			if err != nil {
				log.Printf("chat: refetch of message %s failed: %v", event.RowID, err)
				continue
			}
			onMessage(msg)
		}
	}()

	return sub, nil
}

func (s *chatService) publish(ctx context.Context, channel string, event common.ChangeEvent) {
	if err := s.feed.Publish(ctx, channel, event); err != nil {
		log.Printf("chat: publish on %s failed: %v", channel, err)
	}
}
