package chathub

import (
	"encoding/json"
	"sync"
	"time"

	"dmgo/backend/internal/config"
	"dmgo/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ConnState is the lifecycle position of a connection.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateAuthenticated
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// WebSocketClient implements Conn over a gorilla websocket.
type WebSocketClient struct {
	id      string
	conn    *websocket.Conn
	handler FrameHandler
	send    chan models.Frame
	log     *zap.SugaredLogger

	mu     sync.RWMutex
	userID string
	state  ConnState
}

func NewWebSocketClient(conn *websocket.Conn, handler FrameHandler, log *zap.SugaredLogger) *WebSocketClient {
	return &WebSocketClient{
		id:      uuid.New().String(),
		conn:    conn,
		handler: handler,
		send:    make(chan models.Frame, config.SendBufferSize),
		log:     log,
		state:   StateConnecting,
	}
}

func (c *WebSocketClient) ID() string { return c.id }

func (c *WebSocketClient) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

func (c *WebSocketClient) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *WebSocketClient) Authenticate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateConnecting {
		c.userID = userID
		c.state = StateAuthenticated
	}
}

func (c *WebSocketClient) Send(frame models.Frame) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == StateDisconnected {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close stops accepting frames; the write pump flushes what is queued and closes the socket.
func (c *WebSocketClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDisconnected {
		return
	}
	c.state = StateDisconnected
	close(c.send)
}

func (c *WebSocketClient) Closed() bool {
	return c.State() == StateDisconnected
}

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Close()
		c.handler.Disconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debugw("Websocket read failed", "conn", c.id, "error", err)
			}
			return
		}

		var frame models.InboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.Send(models.Frame{Event: models.EventError, Data: models.ErrorPayload{Message: "malformed frame"}})
			continue
		}
		c.handler.HandleFrame(c, frame)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				c.log.Debugw("Websocket write failed", "conn", c.id, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
