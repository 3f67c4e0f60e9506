package user

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"soundbridge/internal/common"
)

// Handler wires the auth endpoints into the router.
type Handler struct {
	userService UserService
}

func NewHandler(userService UserService) *Handler {
	return &Handler{userService: userService}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
}

// RegisterProtectedRoutes holds the endpoints that need a signed-in user.
func (h *Handler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/auth/profile", h.Profile).Methods(http.MethodGet)
}

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string          `json:"token"`
	Profile *profilePayload `json:"profile"`
}

// profilePayload is the wire shape of a profile without credentials.
type profilePayload struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Role        string  `json:"role"`
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, http.StatusUnauthorized, common.ErrAuthRequired.Error())
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), userID)
	if err != nil {
		common.WriteError(w, http.StatusNotFound, "profile not found")
		return
	}

	common.WriteJSON(w, http.StatusOK, &profilePayload{
		ID:          profile.ID,
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
		Role:        profile.Role,
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, token, err := h.userService.Register(r.Context(), req.Username, req.DisplayName, req.Email, req.Password, req.Role)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	common.WriteJSON(w, http.StatusCreated, authResponse{
		Token: token,
		Profile: &profilePayload{
			ID:          profile.ID,
			Username:    profile.Username,
			DisplayName: profile.DisplayName,
			AvatarURL:   profile.AvatarURL,
			Role:        profile.Role,
		},
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, token, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		common.WriteError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	common.WriteJSON(w, http.StatusOK, authResponse{
		Token: token,
		Profile: &profilePayload{
			ID:          profile.ID,
			Username:    profile.Username,
			DisplayName: profile.DisplayName,
			AvatarURL:   profile.AvatarURL,
			Role:        profile.Role,
		},
	})
}
