package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"soundbridge/internal/chat/service"
	"soundbridge/internal/common"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/conversations", h.GetConversations).Methods(http.MethodGet)
	r.HandleFunc("/messages/unread-count", h.UnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/messages/{otherUserID}", h.GetMessages).Methods(http.MethodGet)
	r.HandleFunc("/messages", h.SendMessage).Methods(http.MethodPost)
}

func (h *ChatHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrAuthRequired.Error())
		return
	}

	conversations, err := h.chatService.GetConversations(r.Context(), userID)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "Failed to load conversations")
		return
	}

	common.WriteJSON(w, http.StatusOK, conversations)
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrAuthRequired.Error())
		return
	}

	otherUserID := mux.Vars(r)["otherUserID"]

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	messages, err := h.chatService.GetMessages(r.Context(), userID, otherUserID, limit)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}

	common.WriteJSON(w, http.StatusOK, messages)
}

type sendMessageRequest struct {
	RecipientID    string  `json:"recipient_id"`
	Content        string  `json:"content"`
	MessageType    string  `json:"message_type"`
	AttachmentURL  *string `json:"attachment_url"`
	AttachmentType *string `json:"attachment_type"`
	AttachmentName *string `json:"attachment_name"`
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrAuthRequired.Error())
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.chatService.SendMessage(r.Context(), service.SendMessageInput{
		SenderID:       userID,
		RecipientID:    req.RecipientID,
		Content:        req.Content,
		MessageType:    common.MessageContentType(req.MessageType),
		AttachmentURL:  req.AttachmentURL,
		AttachmentType: req.AttachmentType,
		AttachmentName: req.AttachmentName,
	})
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	common.WriteJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrAuthRequired.Error())
		return
	}

	count, err := h.chatService.UnreadCount(r.Context(), userID)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "Failed to count unread messages")
		return
	}

	common.WriteJSON(w, http.StatusOK, map[string]int64{"unread_count": count})
}
