package chathub_test

import (
	"sync"
	"time"

	"dmgo/backend/internal/models"
)

// MockConn records the frames pushed to it.
type MockConn struct {
	id string

	mu     sync.Mutex
	userID string
	frames []models.Frame
	closed bool
	full   bool
}

func newMockConn(id string) *MockConn {
	return &MockConn{id: id}
}

func newAuthedConn(id, userID string) *MockConn {
	c := newMockConn(id)
	c.Authenticate(userID)
	return c
}

func (c *MockConn) ID() string { return c.id }

func (c *MockConn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *MockConn) Authenticate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
}

func (c *MockConn) Send(frame models.Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.full {
		return false
	}
	c.frames = append(c.frames, frame)
	return true
}

func (c *MockConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockConn) Closed() bool {
	return c.isClosed()
}

func (c *MockConn) setFull() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = true
}

func (c *MockConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *MockConn) Frames() []models.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Frame(nil), c.frames...)
}

func (c *MockConn) events() []string {
	var out []string
	for _, f := range c.Frames() {
		out = append(out, f.Event)
	}
	return out
}

func (c *MockConn) lastFrame() models.Frame {
	frames := c.Frames()
	if len(frames) == 0 {
		return models.Frame{}
	}
	return frames[len(frames)-1]
}

var waitFor = time.Second
