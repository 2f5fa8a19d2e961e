package models

import "encoding/json"

// Realtime event names exchanged over the gateway websocket.
const (
	// server -> client
	EventNewMessage     = "new_message"
	EventRoomNewMessage = "room_new_message"
	EventMessageRead    = "message_read"
	EventRoomJoined     = "room_joined"
	EventAck            = "ack"
	EventError          = "error"

	// client -> server
	EventJoinRoom       = "join_room"
	EventSendMessage    = "send_message"
	EventReadMessage    = "read_message"
	EventRemoveMessages = "remove_messages"
)

// Frame is a server -> client websocket message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// InboundFrame is a client -> server websocket message. Data is decoded per Event.
type InboundFrame struct {
	Event     string          `json:"event"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// ErrorPayload is the body of an error frame.
type ErrorPayload struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// AckPayload confirms a client command.
type AckPayload struct {
	Event     string `json:"event"`
	RequestID string `json:"requestId,omitempty"`
	Result    any    `json:"result,omitempty"`
}

// JoinRoomRequest is the body of a join_room frame.
type JoinRoomRequest struct {
	ChatID string `json:"chatId"`
}

// RoomJoinedPayload acknowledges a join_room frame.
type RoomJoinedPayload struct {
	ChatID string `json:"chatId"`
	Room   string `json:"room"`
}

// DeliveredMessage is a message enriched with sender data before it is pushed.
type DeliveredMessage struct {
	Message
	SenderUsername  string `json:"senderUsername"`
	SenderAvatarURL string `json:"senderAvatarUrl"`
	SenderIsBanned  bool   `json:"senderIsBanned"`
}

// ReadReceipt is pushed when the other participant reads a message.
type ReadReceipt struct {
	MessageID string           `json:"messageId"`
	ChatID    string           `json:"chatId"`
	ReaderID  string           `json:"readerId"`
	Message   DeliveredMessage `json:"message"`
}
