package dbmysql

import (
	"time"
)

// Profile is the public identity joined into messages and used to verify
// notification targets.
type Profile struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	DisplayName  string    `gorm:"size:100;not null" json:"display_name"`
	AvatarURL    *string   `gorm:"size:512" json:"avatar_url,omitempty"`
	Role         string    `gorm:"size:20;not null;default:'listener'" json:"role"`
	Email        string    `gorm:"size:255" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
