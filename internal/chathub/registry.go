package chathub

import (
	"errors"
	"sync"

	"dmgo/backend/internal/config"
	"dmgo/backend/internal/models"

	"go.uber.org/zap"
)

var ErrNotRegistered = errors.New("connection is not registered")

type connSet map[Conn]struct{}

// Registry tracks live connections by user and by room.
type Registry struct {
	mu        sync.RWMutex
	owners    map[Conn]string
	users     map[string]connSet
	rooms     map[string]connSet
	connRooms map[Conn]map[string]struct{}
	log       *zap.SugaredLogger
}

// Stats is a point-in-time count of the registry.
type Stats struct {
	Connections int `json:"connections"`
	Users       int `json:"users"`
	Rooms       int `json:"rooms"`
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		owners:    make(map[Conn]string),
		users:     make(map[string]connSet),
		rooms:     make(map[string]connSet),
		connRooms: make(map[Conn]map[string]struct{}),
		log:       log,
	}
}

// RoomName is the room address of a chat.
func RoomName(chatID string) string {
	return config.RoomPrefix + chatID
}

// Register adds an authenticated connection under its user.
func (r *Registry) Register(conn Conn) {
	userID := conn.UserID()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.owners[conn] = userID
	set, ok := r.users[userID]
	if !ok {
		set = make(connSet)
		r.users[userID] = set
	}
	set[conn] = struct{}{}
}

// Unregister removes the connection from every user and room entry. It reports whether it was registered.
func (r *Registry) Unregister(conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[conn]
	if !ok {
		return false
	}
	delete(r.owners, conn)

	if set := r.users[userID]; set != nil {
		delete(set, conn)
		if len(set) == 0 {
			delete(r.users, userID)
		}
	}

	for room := range r.connRooms[conn] {
		if set := r.rooms[room]; set != nil {
			delete(set, conn)
			if len(set) == 0 {
				delete(r.rooms, room)
			}
		}
	}
	delete(r.connRooms, conn)
	return true
}

// ConnectionsFor returns a copy of the user's connections.
func (r *Registry) ConnectionsFor(userID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshot(r.users[userID])
}

// JoinRoom adds a registered connection to the chat's room and returns the room name.
// Membership must be checked by the caller.
func (r *Registry) JoinRoom(conn Conn, chatID string) (string, error) {
	room := RoomName(chatID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[conn]; !ok {
		return "", ErrNotRegistered
	}

	set, ok := r.rooms[room]
	if !ok {
		set = make(connSet)
		r.rooms[room] = set
	}
	set[conn] = struct{}{}

	joined, ok := r.connRooms[conn]
	if !ok {
		joined = make(map[string]struct{})
		r.connRooms[conn] = joined
	}
	joined[room] = struct{}{}
	return room, nil
}

// EmitToUser pushes frame to every connection of the user and returns how many accepted it.
func (r *Registry) EmitToUser(userID string, frame models.Frame) int {
	return r.emit(r.ConnectionsFor(userID), frame)
}

// EmitToRoom pushes frame to every connection in the chat's room and returns how many accepted it.
func (r *Registry) EmitToRoom(chatID string, frame models.Frame) int {
	r.mu.RLock()
	conns := snapshot(r.rooms[RoomName(chatID)])
	r.mu.RUnlock()

	return r.emit(conns, frame)
}

func (r *Registry) emit(conns []Conn, frame models.Frame) int {
	delivered := 0
	for _, conn := range conns {
		if conn.Send(frame) {
			delivered++
			continue
		}
		r.log.Debugw("Failed to push frame", "event", frame.Event, "conn", conn.ID())
	}
	return delivered
}

func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{Connections: len(r.owners), Users: len(r.users), Rooms: len(r.rooms)}
}

func snapshot(set connSet) []Conn {
	out := make([]Conn, 0, len(set))
	for conn := range set {
		out = append(out, conn)
	}
	return out
}
