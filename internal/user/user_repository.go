package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"soundbridge/internal/dbmysql"
)

// ProfileRepository covers the profile lookups the notification and
// messaging services need, plus registration.
type ProfileRepository interface {
	Create(ctx context.Context, profile *dbmysql.Profile) error
	ByID(ctx context.Context, id string) (*dbmysql.Profile, error)
	ByUsername(ctx context.Context, username string) (*dbmysql.Profile, error)
	Exists(ctx context.Context, username string) (bool, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *dbmysql.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) ByID(ctx context.Context, id string) (*dbmysql.Profile, error) {
	var profile dbmysql.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) ByUsername(ctx context.Context, username string) (*dbmysql.Profile, error) {
	var profile dbmysql.Profile
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Exists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Profile{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return count > 0, nil
}
