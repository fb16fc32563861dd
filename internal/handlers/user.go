package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/messaging"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/repositories"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/telemetry"
)

// UserHandler manages user listing and admin moderation endpoints.
type UserHandler struct {
	users    repositories.UserRepository
	messages *messaging.Service
	audit    *telemetry.AuditEmitter
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users repositories.UserRepository, messages *messaging.Service, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{users: users, messages: messages, audit: audit}
}

// ListUsers returns all users, paginated.
func (h *UserHandler) ListUsers(c *gin.Context) {
	offset, limit := pagination(c)
	users, err := h.users.List(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}

	resp := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		resp = append(resp, u.Public())
	}
	c.JSON(http.StatusOK, gin.H{"users": resp})
}

// UpdateUserModeration handles PATCH /admin/users/:user_id.
func (h *UserHandler) UpdateUserModeration(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		ViolationCount *int  `json:"violation_count"`
		IsBanned       *bool `json:"is_banned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateModeration(c.Request.Context(), userID, req.ViolationCount, req.IsBanned)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update user"})
		return
	}

	h.emitAudit(c, "INFO", "User moderation updated")
	c.JSON(http.StatusOK, user)
}

// ModerateMessage handles PATCH /admin/messages/:message_id/status.
func (h *UserHandler) ModerateMessage(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown moderation status"})
		return
	}

	msg, err := h.messages.Moderate(c.Request.Context(), messageID, req.Status)
	if err != nil {
		respondError(c, err, "could not update message status")
		return
	}

	h.emitAudit(c, "INFO", "Message status updated")
	c.JSON(http.StatusOK, msg)
}

func (h *UserHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return offset, limit
}
