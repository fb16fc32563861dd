package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/messaging"
	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/telemetry"
)

// MessageHandler manages message endpoints.
type MessageHandler struct {
	messages *messaging.Service
	audit    *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages *messaging.Service, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{messages: messages, audit: audit}
}

// GetChatMessages returns messages for a chat.
func (h *MessageHandler) GetChatMessages(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	offset, limit := pagination(c)

	msgs, err := h.messages.List(c.Request.Context(), chatID, c.GetInt("userID"), offset, limit)
	if err != nil {
		respondError(c, err, "failed to load messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostChatMessage stores a chat message and broadcasts it.
func (h *MessageHandler) PostChatMessage(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Post(c.Request.Context(), chatID, c.GetInt("userID"), req.Content)
	if err != nil {
		h.emitAudit(c, "ERROR", "message post failed")
		respondError(c, err, "failed to store message")
		return
	}

	h.emitAudit(c, "INFO", "Message sent")
	c.JSON(http.StatusCreated, msg)
}

// EditMessage rewrites a message's content (sender only).
func (h *MessageHandler) EditMessage(c *gin.Context) {
	messageID, ok := messageIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Edit(c.Request.Context(), messageID, c.GetInt("userID"), req.Content)
	if err != nil {
		respondError(c, err, "could not update message")
		return
	}
	c.JSON(http.StatusOK, msg)
}

// DeleteMessage removes a message (sender only).
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := messageIDParam(c)
	if !ok {
		return
	}

	if err := h.messages.Delete(c.Request.Context(), messageID, c.GetInt("userID")); err != nil {
		respondError(c, err, "could not delete message")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func messageIDParam(c *gin.Context) (int, bool) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return 0, false
	}
	return messageID, true
}
