package handler

import (
	"net/http"

	"dmgo/backend/internal/auth"
	"dmgo/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// GatewayHandler serves the delivery gateway's HTTP surface.
type GatewayHandler struct {
	Gateway  *chathub.Gateway
	Registry *chathub.Registry
	upgrader websocket.Upgrader
	log      *zap.SugaredLogger
}

// NewGatewayHandler accepts websocket origins from allowedOrigins; "*" or an empty list allows any.
func NewGatewayHandler(gateway *chathub.Gateway, registry *chathub.Registry, allowedOrigins []string, log *zap.SugaredLogger) *GatewayHandler {
	return &GatewayHandler{
		Gateway:  gateway,
		Registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func (h *GatewayHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws", h.ServeWebSocket)
	r.GET("/health", h.Health)
}

// ServeWebSocket upgrades the connection and hands it to the gateway. Authentication happens after
// the upgrade so a rejected client receives an error frame before the close.
func (h *GatewayHandler) ServeWebSocket(c *gin.Context) {
	token := auth.TokenFromRequest(c.Request)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debugw("Failed to upgrade connection", "error", err)
		return
	}

	client := chathub.NewWebSocketClient(conn, h.Gateway, h.log)
	client.Run()

	if err := h.Gateway.Accept(c.Request.Context(), client, token); err != nil {
		h.log.Infow("Connection rejected", "remote", c.ClientIP(), "error", err)
	}
}

func (h *GatewayHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "registry": h.Registry.Stats()})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
