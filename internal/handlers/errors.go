package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/apperr"
)

// respondError maps the service error taxonomy to HTTP statuses. Unknown
// errors are treated as internal and reported with the fallback message.
func respondError(c *gin.Context, err error, fallback string) {
	var unknown *apperr.UnknownParticipantsError
	switch {
	case errors.As(err, &unknown):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown participants", "missing_ids": unknown.IDs})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrAlreadyMember), errors.Is(err, apperr.ErrNotMember), errors.Is(err, apperr.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrTooFewParticipants):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
