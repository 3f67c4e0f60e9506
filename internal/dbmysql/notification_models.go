package dbmysql

import (
	"time"

	"soundbridge/internal/common"
)

// Notification is a user-scoped record describing an event relevant to
// that user. Immutable after creation except for IsRead/ReadAt, which
// move unread -> read exactly once. Deletes are hard deletes.
type Notification struct {
	ID          string                      `gorm:"primaryKey;size:36" json:"id"`
	UserID      string                      `gorm:"not null;index;size:36" json:"user_id"`
	Type        common.NotificationType     `gorm:"not null;size:50" json:"type"`
	Title       string                      `gorm:"not null;size:255" json:"title"`
	Message     string                      `gorm:"not null;type:text" json:"message"`
	RelatedID   *string                     `gorm:"size:36" json:"related_id,omitempty"`
	RelatedType *string                     `gorm:"size:50" json:"related_type,omitempty"`
	ActionURL   *string                     `gorm:"size:512" json:"action_url,omitempty"`
	Metadata    common.NotificationMetadata `gorm:"type:json" json:"metadata,omitempty"`
	IsRead      bool                        `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt      *time.Time                  `json:"read_at,omitempty"`
	CreatedAt   time.Time                   `gorm:"autoCreateTime;index" json:"created_at"`
}

// NotificationPreference gates best-effort push delivery per user.
// A missing row means push stays off.
type NotificationPreference struct {
	UserID             string    `gorm:"primaryKey;size:36" json:"user_id"`
	PushNotifications  bool      `gorm:"not null;default:false" json:"push_notifications"`
	EmailNotifications bool      `gorm:"not null;default:false" json:"email_notifications"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
