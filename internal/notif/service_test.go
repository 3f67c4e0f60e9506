package notif

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, profile *dbmysql.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) ByID(ctx context.Context, id string) (*dbmysql.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmysql.Profile), args.Error(1)
}

func (m *MockProfileRepository) ByUsername(ctx context.Context, username string) (*dbmysql.Profile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmysql.Profile), args.Error(1)
}

func (m *MockProfileRepository) Exists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

type MockPreferenceRepository struct {
	mock.Mock
}

func (m *MockPreferenceRepository) ByUserID(ctx context.Context, userID string) (*dbmysql.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmysql.NotificationPreference), args.Error(1)
}

func (m *MockPreferenceRepository) Upsert(ctx context.Context, pref *dbmysql.NotificationPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) Push(ctx context.Context, userID, title, body, actionURL string) error {
	args := m.Called(ctx, userID, title, body, actionURL)
	return args.Error(0)
}

func newServiceFixture() (*Service, *MockNotificationRepository, *MockProfileRepository, *MockPreferenceRepository, *fakeFeed, *MockPusher) {
	repo := new(MockNotificationRepository)
	profiles := new(MockProfileRepository)
	prefs := new(MockPreferenceRepository)
	feed := newFakeFeed()
	pusher := new(MockPusher)
	svc := NewService(repo, profiles, prefs, feed, pusher)
	return svc, repo, profiles, prefs, feed, pusher
}

func TestCreateNotification_PersistsAndPublishes(t *testing.T) {
	svc, repo, _, prefs, feed, _ := newServiceFixture()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*dbmysql.Notification")).Return(nil)
	prefs.On("ByUserID", mock.Anything, "u1").Return(nil, nil)

	n, err := svc.CreateNotification(context.Background(), CreateNotificationInput{
		UserID:  "u1",
		Type:    common.SystemType,
		Title:   "Welcome",
		Message: "Hello",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, n.ID)

	events := feed.publishedEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, "notifications:user:u1", events[0].channel)
	assert.Equal(t, "notifications", events[0].event.Table)
	assert.Equal(t, common.OpInsert, events[0].event.Op)
	assert.Equal(t, n.ID, events[0].event.RowID)
}

func TestCreateNotification_Validation(t *testing.T) {
	svc, repo, _, _, _, _ := newServiceFixture()

	cases := []struct {
		name  string
		input CreateNotificationInput
	}{
		{"missing user", CreateNotificationInput{Type: common.SystemType, Title: "t", Message: "m"}},
		{"bad type", CreateNotificationInput{UserID: "u1", Type: "bogus", Title: "t", Message: "m"}},
		{"missing title", CreateNotificationInput{UserID: "u1", Type: common.SystemType, Message: "m"}},
		{"missing message", CreateNotificationInput{UserID: "u1", Type: common.SystemType, Title: "t"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateNotification(context.Background(), tc.input)
			assert.Error(t, err)
		})
	}

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateNotification_PushGatedOnPreference(t *testing.T) {
	svc, repo, _, prefs, _, pusher := newServiceFixture()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*dbmysql.Notification")).Return(nil)

	// Opted in: push goes out.
	prefs.On("ByUserID", mock.Anything, "opted-in").
		Return(&dbmysql.NotificationPreference{UserID: "opted-in", PushNotifications: true}, nil)
	pusher.On("Push", mock.Anything, "opted-in", "t", "m", "").Return(nil).Once()

	_, err := svc.CreateNotification(context.Background(), CreateNotificationInput{
		UserID: "opted-in", Type: common.SystemType, Title: "t", Message: "m",
	})
	assert.NoError(t, err)

	// Opted out: no push.
	prefs.On("ByUserID", mock.Anything, "opted-out").
		Return(&dbmysql.NotificationPreference{UserID: "opted-out", PushNotifications: false}, nil)

	_, err = svc.CreateNotification(context.Background(), CreateNotificationInput{
		UserID: "opted-out", Type: common.SystemType, Title: "t", Message: "m",
	})
	assert.NoError(t, err)

	// No preference row behaves like opted out.
	prefs.On("ByUserID", mock.Anything, "no-row").Return(nil, nil)

	_, err = svc.CreateNotification(context.Background(), CreateNotificationInput{
		UserID: "no-row", Type: common.SystemType, Title: "t", Message: "m",
	})
	assert.NoError(t, err)

	pusher.AssertNumberOfCalls(t, "Push", 1)
}

func TestCreateNotification_PushFailureDoesNotFailCreate(t *testing.T) {
	svc, repo, _, prefs, _, pusher := newServiceFixture()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*dbmysql.Notification")).Return(nil)
	prefs.On("ByUserID", mock.Anything, "u1").
		Return(&dbmysql.NotificationPreference{UserID: "u1", PushNotifications: true}, nil)
	pusher.On("Push", mock.Anything, "u1", "t", "m", "").Return(errors.New("gateway down"))

	_, err := svc.CreateNotification(context.Background(), CreateNotificationInput{
		UserID: "u1", Type: common.SystemType, Title: "t", Message: "m",
	})

	assert.NoError(t, err)
}

func TestSendFollowNotification(t *testing.T) {
	svc, repo, profiles, prefs, _, _ := newServiceFixture()

	profiles.On("ByID", mock.Anything, "follower").
		Return(&dbmysql.Profile{ID: "follower", Username: "mira_beats", DisplayName: "Mira"}, nil)
	prefs.On("ByUserID", mock.Anything, "followed").Return(nil, nil)

	var created *dbmysql.Notification
	repo.On("Create", mock.Anything, mock.AnythingOfType("*dbmysql.Notification")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*dbmysql.Notification)
		}).Return(nil)

	assert.NoError(t, svc.SendFollowNotification(context.Background(), "follower", "followed"))

	assert.Equal(t, common.FollowType, created.Type)
	assert.Equal(t, "followed", created.UserID)
	assert.Equal(t, "Mira started following you", created.Message)
}

func TestSendFollowNotification_SelfFollowIsSkipped(t *testing.T) {
	svc, repo, _, _, _, _ := newServiceFixture()

	assert.NoError(t, svc.SendFollowNotification(context.Background(), "u1", "u1"))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendFollowNotification_ActorLookupFailureIsNotFatal(t *testing.T) {
	svc, repo, profiles, _, _, _ := newServiceFixture()

	profiles.On("ByID", mock.Anything, "ghost").Return(nil, errors.New("not found"))

	assert.NoError(t, svc.SendFollowNotification(context.Background(), "ghost", "followed"))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendCollaborationRequestNotification(t *testing.T) {
	svc, repo, profiles, prefs, _, _ := newServiceFixture()

	profiles.On("ByID", mock.Anything, "req").
		Return(&dbmysql.Profile{ID: "req", Username: "jo", DisplayName: "Jo Smith"}, nil)
	prefs.On("ByUserID", mock.Anything, "rec").Return(nil, nil)

	var created *dbmysql.Notification
	repo.On("Create", mock.Anything, mock.AnythingOfType("*dbmysql.Notification")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*dbmysql.Notification)
		}).Return(nil)

	err := svc.SendCollaborationRequestNotification(context.Background(), "req", "rec", "cr-9", "Studio session")

	assert.NoError(t, err)
	assert.Equal(t, common.CollaborationRequestType, created.Type)
	assert.Equal(t, "/availability?request=cr-9", *created.ActionURL)
	assert.Equal(t, "Jo Smith", created.Metadata["requester_name"])
}

func TestSendRatingPromptNotification(t *testing.T) {
	svc, repo, _, prefs, _, _ := newServiceFixture()

	prefs.On("ByUserID", mock.Anything, "u1").Return(nil, nil)

	var created *dbmysql.Notification
	repo.On("Create", mock.Anything, mock.AnythingOfType("*dbmysql.Notification")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*dbmysql.Notification)
		}).Return(nil)

	err := svc.SendRatingPromptNotification(context.Background(), "u1", "p1", "u9", "Jo Smith")

	assert.NoError(t, err)
	assert.Equal(t, common.RatingPromptType, created.Type)
	assert.Equal(t, "p1", created.Metadata["project_id"])
	assert.Equal(t, "u9", created.Metadata["ratee_id"])
	assert.Equal(t, "Jo Smith", created.Metadata["ratee_name"])
}

func TestCleanOldNotifications(t *testing.T) {
	svc, repo, _, _, _, _ := newServiceFixture()

	repo.On("DeleteReadOlderThan", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(int64(12), nil)

	assert.NoError(t, svc.CleanOldNotifications(context.Background(), 90))

	cutoff := repo.Calls[0].Arguments.Get(1).(time.Time)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -90), cutoff, time.Minute)
}
