package realtime

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MessageStream delivers the authoritative message row for each event
// on a user's message channel. Implemented by the chat service, which
// re-reads every row before handing it over.
type MessageStream interface {
	SubscribeToMessages(ctx context.Context, userID string, onMessage func(*dbmysql.Message)) (common.FeedSubscription, error)
}

// Frame is one websocket payload. Notification frames carry the change
// hint and clients re-fetch; message frames carry the full row.
type Frame struct {
	Kind         string              `json:"kind"`
	Notification *common.ChangeEvent `json:"notification,omitempty"`
	Message      *dbmysql.Message    `json:"message,omitempty"`
}

const (
	FrameNotification = "notification"
	FrameMessage      = "message"
)

// WSHandler streams a signed-in user's change events over a websocket.
// Clients that lose the socket simply reconnect; the poll fallback in
// the stores covers any events missed in between.
type WSHandler struct {
	feed     common.ChangeFeed
	messages MessageStream
}

func NewWSHandler(feed common.ChangeFeed, messages MessageStream) *WSHandler {
	return &WSHandler{feed: feed, messages: messages}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrAuthRequired.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("realtime: upgrade for user %s failed: %v", userID, err)
		return
	}
	defer conn.Close()

	notifSub, err := h.feed.Subscribe(r.Context(), NotificationChannel(userID))
	if err != nil {
		log.Printf("realtime: notification subscribe for user %s failed: %v", userID, err)
		return
	}
	defer notifSub.Close()

	// Messages arrive already enriched; a missed frame is recovered by
	// the client's next thread fetch, so a slow socket just drops it.
	msgCh := make(chan *dbmysql.Message, 16)
	msgSub, err := h.messages.SubscribeToMessages(r.Context(), userID, func(msg *dbmysql.Message) {
		select {
		case msgCh <- msg:
		default:
			log.Printf("realtime: dropping message frame for slow socket, user %s", userID)
		}
	})
	if err != nil {
		log.Printf("realtime: message subscribe for user %s failed: %v", userID, err)
		return
	}
	defer msgSub.Close()

	// Reader only services control frames; clients do not send data.
	go func() {
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-notifSub.Events():
			if !ok {
				return
			}
			if err := writeFrame(conn, Frame{Kind: FrameNotification, Notification: &event}); err != nil {
				return
			}
		case msg := <-msgCh:
			if err := writeFrame(conn, Frame{Kind: FrameMessage, Message: msg}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, frame Frame) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(frame)
}
