package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const devTokenTTL = 72 * time.Hour

type issueTokenRequest struct {
	UserID string `json:"userId"`
}

// IssueToken signs a token for the given user, or for a fresh random id. Development only.
func (h *Handler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if req.UserID == "" {
		req.UserID = uuid.New().String()
	}

	token, err := h.Verifier.Issue(req.UserID, devTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "userId": req.UserID})
}
