package notif

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
	"soundbridge/internal/realtime"
	"soundbridge/internal/user"
)

// CreateNotificationInput is the raw shape every factory reduces to.
type CreateNotificationInput struct {
	UserID      string
	Type        common.NotificationType
	Title       string
	Message     string
	RelatedID   *string
	RelatedType *string
	ActionURL   *string
	Metadata    common.NotificationMetadata
}

// Service creates notifications, announces them on the change feed and
// pushes to the device when the recipient has push enabled.
type Service struct {
	repo     dbmysql.NotificationRepository
	profiles user.ProfileRepository
	prefs    dbmysql.PreferenceRepository
	feed     common.ChangeFeed
	pusher   common.Pusher
}

func NewService(
	repo dbmysql.NotificationRepository,
	profiles user.ProfileRepository,
	prefs dbmysql.PreferenceRepository,
	feed common.ChangeFeed,
	pusher common.Pusher,
) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		prefs:    prefs,
		feed:     feed,
		pusher:   pusher,
	}
}

// CreateNotification persists the row, then announces it. Feed and push
// failures only log: the row is already durable and the 30s reconcile
// will surface it.
func (s *Service) CreateNotification(ctx context.Context, input CreateNotificationInput) (*dbmysql.Notification, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid notification type: %s", input.Type)
	}
	if input.Title == "" || input.Message == "" {
		return nil, fmt.Errorf("title and message are required")
	}

	notification := &dbmysql.Notification{
		ID:          uuid.New().String(),
		UserID:      input.UserID,
		Type:        input.Type,
		Title:       input.Title,
		Message:     input.Message,
		RelatedID:   input.RelatedID,
		RelatedType: input.RelatedType,
		ActionURL:   input.ActionURL,
		Metadata:    input.Metadata,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	event := common.ChangeEvent{
		Table: "notifications",
		Op:    common.OpInsert,
		RowID: notification.ID,
	}
	if err := s.feed.Publish(ctx, realtime.NotificationChannel(input.UserID), event); err != nil {
		log.Printf("notif: publish for user %s failed: %v", input.UserID, err)
	}

	s.maybePush(ctx, notification)

	return notification, nil
}

// maybePush delivers to the device only when the recipient opted in.
// A missing preference row means push is off.
func (s *Service) maybePush(ctx context.Context, n *dbmysql.Notification) {
	if s.pusher == nil {
		return
	}

	pref, err := s.prefs.ByUserID(ctx, n.UserID)
	if err != nil {
		log.Printf("notif: preference lookup for user %s failed: %v", n.UserID, err)
		return
	}
	if pref == nil || !pref.PushNotifications {
		return
	}

	if err := s.pusher.Push(ctx, n.UserID, n.Title, n.Message, ResolveURL(n)); err != nil {
		log.Printf("notif: push for user %s failed: %v", n.UserID, err)
	}
}

// actorName resolves the triggering user's display name. A failed
// lookup skips the notification instead of failing the caller's
// primary action.
func (s *Service) actorName(ctx context.Context, actorID string) (string, bool) {
	profile, err := s.profiles.ByID(ctx, actorID)
	if err != nil {
		log.Printf("notif: actor lookup %s failed, skipping notification: %v", actorID, err)
		return "", false
	}
	name := profile.DisplayName
	if name == "" {
		name = profile.Username
	}
	return name, true
}

func (s *Service) SendFollowNotification(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return nil
	}
	name, ok := s.actorName(ctx, followerID)
	if !ok {
		return nil
	}

	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:  followedID,
		Type:    common.FollowType,
		Title:   "New Follower",
		Message: fmt.Sprintf("%s started following you", name),
		Metadata: common.NotificationMetadata{
			"follower_id": followerID,
		},
	})
	return err
}

func (s *Service) SendLikeNotification(ctx context.Context, likerID, authorID, trackID, trackTitle string) error {
	if likerID == authorID {
		return nil
	}
	name, ok := s.actorName(ctx, likerID)
	if !ok {
		return nil
	}

	relatedType := "track"
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      authorID,
		Type:        common.LikeType,
		Title:       "New Like",
		Message:     fmt.Sprintf("%s liked %s", name, trackTitle),
		RelatedID:   &trackID,
		RelatedType: &relatedType,
		Metadata: common.NotificationMetadata{
			"liker_id": likerID,
			"track_id": trackID,
		},
	})
	return err
}

func (s *Service) SendCommentNotification(ctx context.Context, commenterID, authorID, trackID, preview string) error {
	if commenterID == authorID {
		return nil
	}
	name, ok := s.actorName(ctx, commenterID)
	if !ok {
		return nil
	}

	relatedType := "track"
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      authorID,
		Type:        common.CommentType,
		Title:       "New Comment",
		Message:     fmt.Sprintf("%s commented: %s", name, preview),
		RelatedID:   &trackID,
		RelatedType: &relatedType,
		Metadata: common.NotificationMetadata{
			"commenter_id": commenterID,
			"track_id":     trackID,
		},
	})
	return err
}

func (s *Service) SendShareNotification(ctx context.Context, sharerID, authorID, trackID, trackTitle string) error {
	if sharerID == authorID {
		return nil
	}
	name, ok := s.actorName(ctx, sharerID)
	if !ok {
		return nil
	}

	relatedType := "track"
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      authorID,
		Type:        common.ShareType,
		Title:       "Track Shared",
		Message:     fmt.Sprintf("%s shared %s", name, trackTitle),
		RelatedID:   &trackID,
		RelatedType: &relatedType,
		Metadata: common.NotificationMetadata{
			"sharer_id": sharerID,
			"track_id":  trackID,
		},
	})
	return err
}

func (s *Service) SendCollaborationRequestNotification(ctx context.Context, requesterID, recipientID, requestID, subject string) error {
	name, ok := s.actorName(ctx, requesterID)
	if !ok {
		return nil
	}

	actionURL := fmt.Sprintf("/availability?request=%s", requestID)
	relatedType := "collaboration_request"
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      recipientID,
		Type:        common.CollaborationRequestType,
		Title:       "Collaboration Request",
		Message:     fmt.Sprintf("%s wants to collaborate: %s", name, subject),
		RelatedID:   &requestID,
		RelatedType: &relatedType,
		ActionURL:   &actionURL,
		Metadata: common.NotificationMetadata{
			"requester_id":   requesterID,
			"requester_name": name,
			"subject":        subject,
		},
	})
	return err
}

func (s *Service) SendCollaborationRequestUpdate(ctx context.Context, responderID, requesterID, requestID string, accepted bool) error {
	name, ok := s.actorName(ctx, responderID)
	if !ok {
		return nil
	}

	verb := "declined"
	if accepted {
		verb = "accepted"
	}

	relatedType := "collaboration_request"
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      requesterID,
		Type:        common.CollaborationType,
		Title:       "Collaboration Update",
		Message:     fmt.Sprintf("%s %s your collaboration request", name, verb),
		RelatedID:   &requestID,
		RelatedType: &relatedType,
		Metadata: common.NotificationMetadata{
			"responder_id": responderID,
			"accepted":     accepted,
		},
	})
	return err
}

func (s *Service) SendUrgentGigNotification(ctx context.Context, musicianID, gigID, venueName string, startsAt time.Time) error {
	relatedType := "gig"
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      musicianID,
		Type:        common.UrgentGigType,
		Title:       "Urgent Gig Nearby",
		Message:     fmt.Sprintf("%s needs a musician at %s", venueName, startsAt.Format("3:04 PM")),
		RelatedID:   &gigID,
		RelatedType: &relatedType,
		Metadata: common.NotificationMetadata{
			"gig_id": gigID,
		},
	})
	return err
}

func (s *Service) SendGigAcceptedNotification(ctx context.Context, musicianID, posterID, gigID string) error {
	name, ok := s.actorName(ctx, musicianID)
	if !ok {
		return nil
	}

	relatedType := "gig"
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      posterID,
		Type:        common.GigAcceptedType,
		Title:       "Gig Response",
		Message:     fmt.Sprintf("%s responded to your gig", name),
		RelatedID:   &gigID,
		RelatedType: &relatedType,
		Metadata: common.NotificationMetadata{
			"gig_id":      gigID,
			"musician_id": musicianID,
		},
	})
	return err
}

func (s *Service) SendGigConfirmedNotification(ctx context.Context, musicianID, gigID, venueName string) error {
	relatedType := "gig"
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      musicianID,
		Type:        common.GigConfirmedType,
		Title:       "Gig Confirmed",
		Message:     fmt.Sprintf("You are confirmed for the gig at %s", venueName),
		RelatedID:   &gigID,
		RelatedType: &relatedType,
		Metadata: common.NotificationMetadata{
			"gig_id": gigID,
		},
	})
	return err
}

func (s *Service) SendGigStartingSoonNotification(ctx context.Context, musicianID, gigID, venueName string, startsAt time.Time) error {
	relatedType := "gig"
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      musicianID,
		Type:        common.GigStartingSoonType,
		Title:       "Gig Starting Soon",
		Message:     fmt.Sprintf("Your gig at %s starts at %s", venueName, startsAt.Format("3:04 PM")),
		RelatedID:   &gigID,
		RelatedType: &relatedType,
		Metadata: common.NotificationMetadata{
			"gig_id": gigID,
		},
	})
	return err
}

func (s *Service) SendRatingPromptNotification(ctx context.Context, userID, projectID, rateeID, rateeName string) error {
	relatedType := "project"
	_, err := s.CreateNotification(ctx, CreateNotificationInput{
		UserID:      userID,
		Type:        common.RatingPromptType,
		Title:       "Rate Your Collaborator",
		Message:     fmt.Sprintf("How was working with %s?", rateeName),
		RelatedID:   &projectID,
		RelatedType: &relatedType,
		Metadata: common.NotificationMetadata{
			"project_id": projectID,
			"ratee_id":   rateeID,
			"ratee_name": rateeName,
		},
	})
	return err
}

// CleanOldNotifications drops read rows older than the retention
// window. Wired to the cron scheduler in the service binary.
func (s *Service) CleanOldNotifications(ctx context.Context, retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted, err := s.repo.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		log.Printf("notif: cleaned %d notifications older than %d days", deleted, retentionDays)
	}
	return nil
}
