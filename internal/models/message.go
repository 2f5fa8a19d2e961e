package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageType is the kind of content a message carries.
type MessageType string

const (
	MessageTypeText  MessageType = "TEXT"
	MessageTypeVoice MessageType = "VOICE"
	MessageTypeFile  MessageType = "FILE"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeVoice, MessageTypeFile:
		return true
	}
	return false
}

// HasAttachment reports whether messages of this type carry media held by the media service.
func (t MessageType) HasAttachment() bool {
	return t == MessageTypeVoice || t == MessageTypeFile
}

// Message is a single sent item within a Chat.
type Message struct {
	// ID is the unique identifier of the message (UUID).
	ID string `gorm:"type:varchar(36);primaryKey;index:idx_messages_chat_created,priority:3" json:"id"`
	// ChatID is the chat the message belongs to.
	ChatID string `gorm:"type:varchar(36);not null;index:idx_messages_chat_created,priority:1" json:"chatId"`
	// SenderID is the user who sent the message.
	SenderID string `gorm:"type:varchar(64);not null;index:idx_messages_sender" json:"senderId"`
	// Content is the text, or for VOICE the internal reference until the attachment resolves to a URL.
	Content string `gorm:"type:text;not null" json:"content"`
	// Type is TEXT, VOICE or FILE.
	Type MessageType `gorm:"type:varchar(8);not null" json:"type"`
	// Duration is the voice length in seconds, set once the attachment resolves.
	Duration *int `json:"duration,omitempty"`
	// CreatedAt orders messages within a chat together with ID.
	CreatedAt time.Time `gorm:"not null;index:idx_messages_chat_created,priority:2" json:"createdAt"`
}

// NeedsResolution reports whether the message is a voice message still waiting for its attachment.
func (m *Message) NeedsResolution() bool {
	return m.Type == MessageTypeVoice && m.Duration == nil
}

// MessageReadStatus records that a user has read a message. At most one row per (message, user).
type MessageReadStatus struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	MessageID string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_read_statuses_message_user,priority:1" json:"messageId"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_read_statuses_message_user,priority:2" json:"userId"`
	ReadAt    time.Time `gorm:"not null" json:"readAt"`
}

// BeforeCreate generates the message id and creation time when they are unset.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return
}

// BeforeCreate generates the status id and read time when they are unset.
func (s *MessageReadStatus) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.ReadAt.IsZero() {
		s.ReadAt = time.Now().UTC()
	}
	return
}
