package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/membership"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/telemetry"
)

// ChatHandler manages chat and membership endpoints.
type ChatHandler struct {
	membership *membership.Service
	audit      *telemetry.AuditEmitter
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(membershipSvc *membership.Service, audit *telemetry.AuditEmitter) *ChatHandler {
	return &ChatHandler{membership: membershipSvc, audit: audit}
}

// ListChats returns the chats visible to the authenticated user.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")
	offset, limit := pagination(c)

	chats, err := h.membership.ListChats(c.Request.Context(), userID, offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// CreateChat handles POST /chats.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Title          string `json:"title"`
		ParticipantIDs []int  `json:"participant_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.membership.CreateChat(c.Request.Context(), userID, req.Title, req.ParticipantIDs)
	if err != nil {
		h.emitAudit(c, "ERROR", "chat creation failed")
		respondError(c, err, "could not create chat")
		return
	}

	h.emitAudit(c, "INFO", "Chat created")
	c.JSON(http.StatusCreated, chat)
}

// GetChat returns a single chat with its participant set.
func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	chat, err := h.membership.GetChat(c.Request.Context(), chatID, c.GetInt("userID"))
	if err != nil {
		respondError(c, err, "failed to load chat")
		return
	}
	c.JSON(http.StatusOK, chat)
}

// RenameChat handles PATCH /chats/:chat_id.
func (h *ChatHandler) RenameChat(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.membership.Rename(c.Request.Context(), chatID, c.GetInt("userID"), req.Title)
	if err != nil {
		respondError(c, err, "could not rename chat")
		return
	}
	c.JSON(http.StatusOK, chat)
}

// DeleteChat removes a chat and all its messages.
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	if err := h.membership.DeleteChat(c.Request.Context(), chatID, c.GetInt("userID")); err != nil {
		h.emitAudit(c, "ERROR", "chat deletion failed")
		respondError(c, err, "could not delete chat")
		return
	}

	h.emitAudit(c, "INFO", "Chat deleted")
	c.Status(http.StatusNoContent)
}

// AddParticipant handles POST /chats/:chat_id/participants.
func (h *ChatHandler) AddParticipant(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.membership.AddParticipant(c.Request.Context(), chatID, c.GetInt("userID"), req.Email)
	if err != nil {
		h.emitAudit(c, "ERROR", "participant addition failed")
		respondError(c, err, "could not add participant")
		return
	}

	h.emitAudit(c, "INFO", "Participant added")
	c.JSON(http.StatusOK, chat)
}

// RemoveParticipant handles DELETE /chats/:chat_id/participants. When the
// removal collapses the chat below two participants the chat is gone and
// the response says so instead of returning chat content.
func (h *ChatHandler) RemoveParticipant(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, deleted, err := h.membership.RemoveParticipant(c.Request.Context(), chatID, c.GetInt("userID"), req.Email)
	if err != nil {
		h.emitAudit(c, "ERROR", "participant removal failed")
		respondError(c, err, "could not remove participant")
		return
	}

	h.emitAudit(c, "INFO", "Participant removed")
	if deleted {
		c.JSON(http.StatusOK, gin.H{"deleted": true})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// LeaveChat handles POST /chats/:chat_id/leave.
func (h *ChatHandler) LeaveChat(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	deleted, err := h.membership.Leave(c.Request.Context(), chatID, c.GetInt("userID"))
	if err != nil {
		h.emitAudit(c, "ERROR", "leave failed")
		respondError(c, err, "could not leave chat")
		return
	}

	h.emitAudit(c, "INFO", "Left chat")
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *ChatHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func chatIDParam(c *gin.Context) (int, bool) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, false
	}
	return chatID, true
}
