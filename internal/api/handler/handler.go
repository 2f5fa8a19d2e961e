package handler

import (
	"context"
	"net/http"

	"dmgo/backend/internal/auth"
	"dmgo/backend/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatService is the conversation service behind the REST and internal routes.
type ChatService interface {
	SendMessage(ctx context.Context, cmd models.SendMessageCommand) (models.SendResult, error)
	ReadMessage(ctx context.Context, cmd models.ReadMessageCommand) error
	RemoveMessages(ctx context.Context, cmd models.RemoveMessagesCommand) ([]string, error)
	ChatsByUser(ctx context.Context, q models.ChatsByUserQuery) (models.Page[models.ChatSummary], error)
	MessagesByChat(ctx context.Context, q models.MessagesByChatQuery) (models.Page[models.MessageItem], error)
	MessageView(ctx context.Context, messageID string) (models.MessageView, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
}

// Handler serves the conversation service's HTTP API.
type Handler struct {
	Chats    ChatService
	Verifier *auth.Verifier
	log      *zap.SugaredLogger
}

func NewHandler(chats ChatService, verifier *auth.Verifier, log *zap.SugaredLogger) *Handler {
	return &Handler{Chats: chats, Verifier: verifier, log: log}
}

// RegisterRoutes mounts the public and internal routes. Development mode adds a token issuing route.
func (h *Handler) RegisterRoutes(r gin.IRouter, internalToken string, development bool) {
	r.GET("/health", h.Health)

	api := r.Group("/api", auth.Middleware(h.Verifier))
	{
		api.POST("/messages", h.SendMessage)
		api.POST("/messages/:id/read", h.ReadMessage)
		api.DELETE("/messages", h.RemoveMessages)
		api.GET("/chats", h.ListChats)
		api.GET("/chats/:chatId/messages", h.ListMessages)
	}

	internal := r.Group("/internal", auth.RequireInternalToken(internalToken))
	{
		internal.POST("/commands/send-message", h.InternalSendMessage)
		internal.POST("/commands/read-message", h.InternalReadMessage)
		internal.POST("/commands/remove-messages", h.InternalRemoveMessages)
		internal.GET("/messages/:id", h.GetMessageView)
		internal.GET("/chats/:chatId/participants/:userId", h.GetParticipant)
	}

	if development {
		r.POST("/dev/token", h.IssueToken)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
