package dbmysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// PreferenceRepository reads and writes per-user push settings.
type PreferenceRepository interface {
	ByUserID(ctx context.Context, userID string) (*NotificationPreference, error)
	Upsert(ctx context.Context, pref *NotificationPreference) error
}

type preferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{db: db}
}

func (r *preferenceRepository) ByUserID(ctx context.Context, userID string) (*NotificationPreference, error) {
	var pref NotificationPreference

	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification preferences: %w", err)
	}

	return &pref, nil
}

func (r *preferenceRepository) Upsert(ctx context.Context, pref *NotificationPreference) error {
	if err := r.db.WithContext(ctx).Save(pref).Error; err != nil {
		return fmt.Errorf("failed to save notification preferences: %w", err)
	}
	return nil
}
