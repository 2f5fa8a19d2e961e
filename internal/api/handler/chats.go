package handler

import (
	"net/http"

	"dmgo/backend/internal/auth"
	"dmgo/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type pageQuery struct {
	PageSize   int `form:"pageSize"`
	PageNumber int `form:"pageNumber"`
}

type chatsQuery struct {
	pageQuery
	EndCursorChatID string `form:"endCursorChatId"`
}

type messagesQuery struct {
	pageQuery
	EndCursorMessageID string `form:"endCursorMessageId"`
}

// ListChats returns a page of the authenticated user's chats.
func (h *Handler) ListChats(c *gin.Context) {
	var q chatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.Chats.ChatsByUser(c.Request.Context(), models.ChatsByUserQuery{
		UserID:          auth.UserID(c),
		PageSize:        q.PageSize,
		PageNumber:      q.PageNumber,
		EndCursorChatID: q.EndCursorChatID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListMessages returns a page of a chat's messages.
func (h *Handler) ListMessages(c *gin.Context) {
	var q messagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	page, err := h.Chats.MessagesByChat(c.Request.Context(), models.MessagesByChatQuery{
		UserID:             auth.UserID(c),
		ChatID:             c.Param("chatId"),
		EndCursorMessageID: q.EndCursorMessageID,
		PageSize:           q.PageSize,
		PageNumber:         q.PageNumber,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetMessageView(c *gin.Context) {
	view, err := h.Chats.MessageView(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) GetParticipant(c *gin.Context) {
	ok, err := h.Chats.IsParticipant(c.Request.Context(), c.Param("chatId"), c.Param("userId"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": ok})
}
