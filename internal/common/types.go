package common

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

type NotificationType string

const (
	FollowType               NotificationType = "follow"
	LikeType                 NotificationType = "like"
	CommentType              NotificationType = "comment"
	ShareType                NotificationType = "share"
	CollaborationType        NotificationType = "collaboration"
	CollaborationRequestType NotificationType = "collaboration_request"
	EventType                NotificationType = "event"
	MessageType              NotificationType = "message"
	SystemType               NotificationType = "system"

	// Gig and project lifecycle types carry deep-link metadata.
	UrgentGigType         NotificationType = "urgent_gig"
	GigAcceptedType       NotificationType = "gig_accepted"
	GigConfirmedType      NotificationType = "gig_confirmed"
	GigStartingSoonType   NotificationType = "gig_starting_soon"
	GigFilledType         NotificationType = "gig_filled"
	ConfirmCompletionType NotificationType = "confirm_completion"
	ProjectCompletedType  NotificationType = "opportunity_project_completed"
	ProjectDisputedType   NotificationType = "opportunity_project_disputed"
	RatingPromptType      NotificationType = "rating_prompt"
)

var validNotificationTypes = map[NotificationType]bool{
	FollowType:               true,
	LikeType:                 true,
	CommentType:              true,
	ShareType:                true,
	CollaborationType:        true,
	CollaborationRequestType: true,
	EventType:                true,
	MessageType:              true,
	SystemType:               true,
	UrgentGigType:            true,
	GigAcceptedType:          true,
	GigConfirmedType:         true,
	GigStartingSoonType:      true,
	GigFilledType:            true,
	ConfirmCompletionType:    true,
	ProjectCompletedType:     true,
	ProjectDisputedType:      true,
	RatingPromptType:         true,
}

func (t NotificationType) IsValid() bool {
	return validNotificationTypes[t]
}

type MessageContentType string

const (
	MessageText          MessageContentType = "text"
	MessageAudio         MessageContentType = "audio"
	MessageImage         MessageContentType = "image"
	MessageFile          MessageContentType = "file"
	MessageCollaboration MessageContentType = "collaboration"
	MessageSystem        MessageContentType = "system"
)

func (t MessageContentType) IsValid() bool {
	switch t {
	case MessageText, MessageAudio, MessageImage, MessageFile, MessageCollaboration, MessageSystem:
		return true
	}
	return false
}

// NotificationMetadata is the open key-value bag stored alongside a
// notification. The deep-link resolver decodes it into typed variants.
type NotificationMetadata map[string]interface{}

func (m NotificationMetadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *NotificationMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into NotificationMetadata", value)
	}
	return json.Unmarshal(raw, m)
}

// ErrAuthRequired is returned by every mutating store operation invoked
// without a signed-in user, before any repository call is made.
var ErrAuthRequired = errors.New("Authentication required")
