//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"soundbridge/internal/chat/handler"
	"soundbridge/internal/chat/repository"
	chatservice "soundbridge/internal/chat/service"
	"soundbridge/internal/notif"
	"soundbridge/internal/realtime"
	"soundbridge/internal/user"
)

func InitializeApplication() (*Application, error) {
	wire.Build(
		provideConfig,
		provideDB,
		provideRedis,
		realtime.NewRedisFeed,
		provideChangeFeed,
		providePusher,
		provideMessageStream,
		realtime.NewWSHandler,

		provideNotificationRepository,
		providePreferenceRepository,
		provideSessionManager,
		notif.NewService,
		notif.NewHandler,

		repository.NewChatRepository,
		chatservice.NewChatService,
		handler.NewChatHandler,

		user.NewProfileRepository,
		user.NewUserService,
		user.NewHandler,

		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
