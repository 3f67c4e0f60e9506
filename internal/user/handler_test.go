package user

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"soundbridge/internal/common"
	"soundbridge/internal/dbmysql"
)

func newTestRouter(repo ProfileRepository) *mux.Router {
	r := mux.NewRouter()
	h := NewHandler(NewUserService(repo))
	h.RegisterRoutes(r)
	h.RegisterProtectedRoutes(r)
	return r
}

func TestRegisterEndpoint(t *testing.T) {
	repo := new(MockProfileRepository)
	repo.On("Exists", mock.Anything, "new_artist").Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*dbmysql.Profile")).Return(nil)

	body, _ := json.Marshal(registerRequest{
		Username: "new_artist",
		Email:    "a@example.com",
		Password: "secret123",
		Role:     "artist",
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newTestRouter(repo).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data authResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, "new_artist", resp.Data.Profile.Username)
}

func TestRegisterEndpoint_BadBody(t *testing.T) {
	repo := new(MockProfileRepository)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	newTestRouter(repo).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileEndpoint(t *testing.T) {
	repo := new(MockProfileRepository)
	repo.On("ByID", mock.Anything, "u1").Return(&dbmysql.Profile{
		ID:          "u1",
		Username:    "mira_beats",
		DisplayName: "Mira",
		Role:        "artist",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req = req.WithContext(common.ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	newTestRouter(repo).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data profilePayload `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.Data.ID)
	assert.Equal(t, "Mira", resp.Data.DisplayName)
}

func TestProfileEndpoint_Unauthenticated(t *testing.T) {
	repo := new(MockProfileRepository)

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	rec := httptest.NewRecorder()
	newTestRouter(repo).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	repo.AssertNotCalled(t, "ByID", mock.Anything, mock.Anything)
}

func TestLoginEndpoint_InvalidCredentials(t *testing.T) {
	repo := new(MockProfileRepository)
	hashed, _ := common.HashPassword("secret123")
	repo.On("ByUsername", mock.Anything, "mira_beats").Return(&dbmysql.Profile{
		ID:           "u1",
		Username:     "mira_beats",
		PasswordHash: hashed,
	}, nil)

	body, _ := json.Marshal(loginRequest{Username: "mira_beats", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	newTestRouter(repo).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
