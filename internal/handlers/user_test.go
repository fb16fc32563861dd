package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/messaging"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/mocks"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/repositories"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/ws"
)

func setupUserRouter() (*gin.Engine, *mocks.UserRepositoryMock, *mocks.MessageRepositoryMock) {
	gin.SetMode(gin.TestMode)
	users := new(mocks.UserRepositoryMock)
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	handler := NewUserHandler(users, messaging.NewService(chats, messages, ws.NewHub()), nil)

	router := gin.New()
	auth := testAuth(1)
	router.GET("/users", auth, handler.ListUsers)
	router.PATCH("/admin/users/:user_id", auth, handler.UpdateUserModeration)
	router.PATCH("/admin/messages/:message_id/status", auth, handler.ModerateMessage)
	return router, users, messages
}

func TestListUsersEndpointHidesPasswordHashes(t *testing.T) {
	router, users, _ := setupUserRouter()

	users.On("List", mock.Anything, 0, 100).Return([]models.User{
		{ID: 1, Name: "Alice", Email: "alice@example.com", PasswordHash: "secret-hash"},
	}, nil)

	rec := doJSON(t, router, http.MethodGet, "/users", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")
	assert.NotContains(t, rec.Body.String(), "secret-hash")
}

func TestUpdateUserModerationEndpoint(t *testing.T) {
	router, users, _ := setupUserRouter()

	banned := true
	updated := models.User{ID: 7, IsBanned: true, ViolationCount: 3}
	users.On("UpdateModeration", mock.Anything, 7, (*int)(nil), &banned).Return(updated, nil)

	rec := doJSON(t, router, http.MethodPatch, "/admin/users/7", gin.H{"is_banned": true})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_banned":true`)
}

func TestUpdateUserModerationEndpointUnknownUser(t *testing.T) {
	router, users, _ := setupUserRouter()

	users.On("UpdateModeration", mock.Anything, 99, mock.Anything, mock.Anything).Return(nil, repositories.ErrUserNotFound)

	rec := doJSON(t, router, http.MethodPatch, "/admin/users/99", gin.H{"is_banned": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModerateMessageEndpoint(t *testing.T) {
	router, _, messages := setupUserRouter()

	updated := models.Message{ID: 9, ViolationStatus: models.StatusApproved}
	messages.On("UpdateStatus", mock.Anything, 9, models.StatusApproved).Return(updated, nil)

	rec := doJSON(t, router, http.MethodPatch, "/admin/messages/9/status", gin.H{"status": models.StatusApproved})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), models.StatusApproved)
}

func TestModerateMessageEndpointRejectsUnknownStatus(t *testing.T) {
	router, _, messages := setupUserRouter()

	rec := doJSON(t, router, http.MethodPatch, "/admin/messages/9/status", gin.H{"status": "nonsense"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	messages.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
