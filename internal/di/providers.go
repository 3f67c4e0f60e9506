package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	chatservice "soundbridge/internal/chat/service"
	"soundbridge/internal/common"
	"soundbridge/internal/config"
	"soundbridge/internal/dbmysql"
	"soundbridge/internal/notif"
	"soundbridge/internal/realtime"
)

func provideConfig() *config.Config {
	return config.LoadConfig()
}

func provideDB(cnf *config.Config) (*gorm.DB, error) {
	return dbmysql.NewMySQL(cnf)
}

func provideRedis(cnf *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cnf.Redis.Addr,
		Password: cnf.Redis.Password,
		DB:       cnf.Redis.DB,
	})
}

func provideChangeFeed(feed *realtime.RedisFeed) common.ChangeFeed {
	return feed
}

func provideMessageStream(chat chatservice.ChatService) realtime.MessageStream {
	return chat
}

func providePusher(cnf *config.Config) common.Pusher {
	if !cnf.Notification.PushEnabled {
		return nil
	}
	return notif.NewLogPusher()
}

func provideNotificationRepository(db *gorm.DB) dbmysql.NotificationRepository {
	return dbmysql.NewNotificationRepository(db)
}

func providePreferenceRepository(db *gorm.DB) dbmysql.PreferenceRepository {
	return dbmysql.NewPreferenceRepository(db)
}

func provideSessionManager(repo dbmysql.NotificationRepository, feed common.ChangeFeed, cnf *config.Config) *notif.SessionManager {
	interval := time.Duration(cnf.Notification.PollIntervalSeconds) * time.Second
	return notif.NewSessionManager(repo, feed, interval, cnf.Notification.FetchLimit)
}
