package dbmysql

import (
	"time"

	"soundbridge/internal/common"
)

// Message is one direct message between two users. Read state advances
// eagerly when the recipient fetches the conversation.
type Message struct {
	ID             string                    `gorm:"primaryKey;size:36" json:"id"`
	SenderID       string                    `gorm:"not null;index;size:36" json:"sender_id"`
	RecipientID    string                    `gorm:"not null;index;size:36" json:"recipient_id"`
	Content        string                    `gorm:"not null;type:text" json:"content"`
	MessageType    common.MessageContentType `gorm:"not null;size:20;default:'text'" json:"message_type"`
	IsRead         bool                      `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt         *time.Time                `json:"read_at,omitempty"`
	AttachmentURL  *string                   `gorm:"size:512" json:"attachment_url,omitempty"`
	AttachmentType *string                   `gorm:"size:50" json:"attachment_type,omitempty"`
	AttachmentName *string                   `gorm:"size:255" json:"attachment_name,omitempty"`
	CreatedAt      time.Time                 `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time                 `gorm:"autoUpdateTime" json:"updated_at"`

	Sender    *Profile `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Recipient *Profile `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}
