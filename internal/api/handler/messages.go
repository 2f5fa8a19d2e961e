package handler

import (
	"net/http"

	"dmgo/backend/internal/auth"
	"dmgo/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	ParticipantID string             `json:"participantId" binding:"required"`
	Message       string             `json:"message" binding:"required"`
	Type          models.MessageType `json:"type"`
}

type removeMessagesRequest struct {
	MessageIDs []string `json:"messageIds" binding:"required"`
}

// SendMessage sends a message from the authenticated user.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.sendMessage(c, models.SendMessageCommand{
		CurrentParticipantID: auth.UserID(c),
		ParticipantID:        req.ParticipantID,
		Message:              req.Message,
		Type:                 req.Type,
	})
}

// ReadMessage marks the path message as read by the authenticated user.
func (h *Handler) ReadMessage(c *gin.Context) {
	h.readMessage(c, models.ReadMessageCommand{UserID: auth.UserID(c), MessageID: c.Param("id")})
}

// RemoveMessages deletes messages sent by the authenticated user.
func (h *Handler) RemoveMessages(c *gin.Context) {
	var req removeMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.removeMessages(c, models.RemoveMessagesCommand{CurrentUserID: auth.UserID(c), MessageIDs: req.MessageIDs})
}

func (h *Handler) InternalSendMessage(c *gin.Context) {
	var cmd models.SendMessageCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, err)
		return
	}
	h.sendMessage(c, cmd)
}

func (h *Handler) InternalReadMessage(c *gin.Context) {
	var cmd models.ReadMessageCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, err)
		return
	}
	h.readMessage(c, cmd)
}

func (h *Handler) InternalRemoveMessages(c *gin.Context) {
	var cmd models.RemoveMessagesCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		badRequest(c, err)
		return
	}
	h.removeMessages(c, cmd)
}

func (h *Handler) sendMessage(c *gin.Context, cmd models.SendMessageCommand) {
	res, err := h.Chats.SendMessage(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) readMessage(c *gin.Context, cmd models.ReadMessageCommand) {
	if err := h.Chats.ReadMessage(c.Request.Context(), cmd); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeMessages(c *gin.Context, cmd models.RemoveMessagesCommand) {
	removed, err := h.Chats.RemoveMessages(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
