package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
)

type UserService interface {
	Register(ctx context.Context, username, displayName, email, password, role string) (*dbmysql.Profile, string, error)
	Login(ctx context.Context, username, password string) (*dbmysql.Profile, string, error)
	GetProfile(ctx context.Context, userID string) (*dbmysql.Profile, error)
}

type userService struct {
	profiles ProfileRepository
}

func NewUserService(profiles ProfileRepository) UserService {
	return &userService{profiles: profiles}
}

func (s *userService) Register(ctx context.Context, username, displayName, email, password, role string) (*dbmysql.Profile, string, error) {
	if err := common.ValidateUsername(username); err != nil {
		return nil, "", err
	}

	if err := common.ValidateEmail(email); err != nil {
		return nil, "", err
	}

	if err := common.ValidatePassword(password); err != nil {
		return nil, "", err
	}

	exists, err := s.profiles.Exists(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", errors.New("username already exists")
	}

	hashed, err := common.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	if displayName == "" {
		displayName = username
	}
	if role == "" {
		role = "listener"
	}

	profile := &dbmysql.Profile{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, "", err
	}

	token, err := common.GenerateToken(profile.ID, profile.Username)
	if err != nil {
		return nil, "", err
	}

	return profile, token, nil
}

func (s *userService) Login(ctx context.Context, username, password string) (*dbmysql.Profile, string, error) {
	if username == "" || password == "" {
		return nil, "", errors.New("username and password required")
	}

	profile, err := s.profiles.ByUsername(ctx, username)
	if err != nil {
		return nil, "", errors.New("invalid username or password")
	}

	if err := common.CheckPassword(password, profile.PasswordHash); err != nil {
		return nil, "", errors.New("invalid username or password")
	}

	token, err := common.GenerateToken(profile.ID, profile.Username)
	if err != nil {
		return nil, "", err
	}

	return profile, token, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*dbmysql.Profile, error) {
	return s.profiles.ByID(ctx, userID)
}
