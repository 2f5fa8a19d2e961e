package handler

import (
	"errors"
	"net/http"

	"dmgo/backend/internal/chat"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError writes the status matching a chat service error.
func respondError(c *gin.Context, log *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, chat.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrTransientUpstream):
		log.Warnw("Upstream failure", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream temporarily unavailable"})
	default:
		log.Errorw("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process chat request"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
