package notif

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
)

// Handler exposes the per-user notification state over HTTP. Every
// route requires the auth middleware.
type Handler struct {
	sessions *SessionManager
	prefs    dbmysql.PreferenceRepository
}

func NewHandler(sessions *SessionManager, prefs dbmysql.PreferenceRepository) *Handler {
	return &Handler{sessions: sessions, prefs: prefs}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	r.HandleFunc("/notifications/unread-count", h.UnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/notifications/read-all", h.MarkAllRead).Methods(http.MethodPost)
	r.HandleFunc("/notifications/preferences", h.GetPreferences).Methods(http.MethodGet)
	r.HandleFunc("/notifications/preferences", h.UpdatePreferences).Methods(http.MethodPut)
	r.HandleFunc("/notifications/{id}/read", h.MarkRead).Methods(http.MethodPost)
	r.HandleFunc("/notifications/{id}", h.Delete).Methods(http.MethodDelete)
}

type notificationResponse struct {
	ID        string                      `json:"id"`
	Type      common.NotificationType     `json:"type"`
	Title     string                      `json:"title"`
	Message   string                      `json:"message"`
	ActionURL string                      `json:"action_url,omitempty"`
	Metadata  common.NotificationMetadata `json:"metadata,omitempty"`
	IsRead    bool                        `json:"is_read"`
	ReadAt    *time.Time                  `json:"read_at,omitempty"`
	CreatedAt time.Time                   `json:"created_at"`
}

type listResponse struct {
	Notifications []notificationResponse `json:"notifications"`
	UnreadCount   int64                  `json:"unread_count"`
}

func toResponse(n *dbmysql.Notification) notificationResponse {
	actionURL := ResolveURL(n)
	if actionURL == "" && n.ActionURL != nil {
		actionURL = *n.ActionURL
	}
	return notificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		ActionURL: actionURL,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrAuthRequired.Error())
		return nil, false
	}
	return h.sessions.Store(r.Context(), userID), true
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("refresh") == "true" {
		if err := store.Fetch(r.Context()); err != nil {
			common.WriteError(w, http.StatusInternalServerError, "Failed to load notifications")
			return
		}
		store.RefreshUnreadCount(r.Context())
	}

	notifications := store.Notifications()
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit < len(notifications) {
			notifications = notifications[:limit]
		}
	}

	out := make([]notificationResponse, len(notifications))
	for i, n := range notifications {
		out[i] = toResponse(n)
	}

	common.WriteJSON(w, http.StatusOK, listResponse{
		Notifications: out,
		UnreadCount:   store.UnreadCount(),
	})
}

func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	store.RefreshUnreadCount(r.Context())
	common.WriteJSON(w, http.StatusOK, map[string]int64{"unread_count": store.UnreadCount()})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if err := store.MarkAsRead(r.Context(), id); err != nil {
		common.WriteError(w, http.StatusInternalServerError, "Failed to mark notification as read")
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]int64{"unread_count": store.UnreadCount()})
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	if err := store.MarkAllAsRead(r.Context()); err != nil {
		common.WriteError(w, http.StatusInternalServerError, "Failed to mark all notifications as read")
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]int64{"unread_count": store.UnreadCount()})
}

type preferencesPayload struct {
	PushNotifications  bool `json:"push_notifications"`
	EmailNotifications bool `json:"email_notifications"`
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrAuthRequired.Error())
		return
	}

	pref, err := h.prefs.ByUserID(r.Context(), userID)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "Failed to load notification preferences")
		return
	}

	// No stored row means the user never opted in.
	out := preferencesPayload{}
	if pref != nil {
		out.PushNotifications = pref.PushNotifications
		out.EmailNotifications = pref.EmailNotifications
	}
	common.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrAuthRequired.Error())
		return
	}

	var req preferencesPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pref := &dbmysql.NotificationPreference{
		UserID:             userID,
		PushNotifications:  req.PushNotifications,
		EmailNotifications: req.EmailNotifications,
	}
	if err := h.prefs.Upsert(r.Context(), pref); err != nil {
		common.WriteError(w, http.StatusInternalServerError, "Failed to save notification preferences")
		return
	}

	common.WriteJSON(w, http.StatusOK, req)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	if err := store.Delete(r.Context(), id); err != nil {
		common.WriteError(w, http.StatusInternalServerError, "Failed to delete notification")
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]int64{"unread_count": store.UnreadCount()})
}
