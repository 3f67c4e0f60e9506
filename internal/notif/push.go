package notif

import (
	"context"
	"log"
)

// logPusher stands in for a real push gateway. Delivery is best effort
// end to end, so a log line is an acceptable transport in development.
type logPusher struct{}

func NewLogPusher() *logPusher {
	return &logPusher{}
}

func (p *logPusher) Push(ctx context.Context, userID, title, body, actionURL string) error {
	log.Printf("push: user=%s title=%q body=%q url=%s", userID, title, body, actionURL)
	return nil
}
