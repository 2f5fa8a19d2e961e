package chathub

import "dmgo/backend/internal/models"

// Conn is one live client connection. A user may hold several at once.
type Conn interface {
	// ID identifies the connection for logging.
	ID() string
	// UserID is empty until the connection is authenticated.
	UserID() string
	// Authenticate binds the connection to a verified user.
	Authenticate(userID string)
	// Send queues a frame without blocking. It reports false when the
	// connection is closed or its buffer is full.
	Send(frame models.Frame) bool
	// Close shuts the connection down after the queued frames are written.
	Close()
	// Closed reports whether Close has run.
	Closed() bool
}

// FrameHandler receives what a connection reads.
type FrameHandler interface {
	HandleFrame(conn Conn, frame models.InboundFrame)
	Disconnect(conn Conn)
}
