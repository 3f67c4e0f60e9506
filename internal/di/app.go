package di

import (
	"gorm.io/gorm"

	"github.com/redis/go-redis/v9"

	"soundbridge/internal/chat/handler"
	"soundbridge/internal/common"
	"soundbridge/internal/config"
	"soundbridge/internal/notif"
	"soundbridge/internal/realtime"
	"soundbridge/internal/user"
)

// Application bundles everything the service binary wires together.
type Application struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Feed   common.ChangeFeed

	Sessions      *notif.SessionManager
	Notifications *notif.Service
	NotifHandler  *notif.Handler
	ChatHandler   *handler.ChatHandler
	UserHandler   *user.Handler
	WSHandler     *realtime.WSHandler
}
