package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is the persistent 1:1 conversation between two users.
// Participants and messages reference it by ChatID; there are no back-pointers.
type Chat struct {
	// ID is the unique identifier of the chat (UUID).
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`
	// PairKey is the sorted pair of participant ids. The unique index keeps one chat per pair.
	PairKey string `gorm:"type:varchar(160);not null;uniqueIndex:ux_chats_pair_key" json:"-"`
	// CreatedAt is the timestamp when the first message created the chat.
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// Participant is a user's membership record in a Chat.
type Participant struct {
	ID       string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ChatID   string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_participants_chat_user,priority:1" json:"chatId"`
	UserID   string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_participants_chat_user,priority:2;index:idx_participants_user" json:"userId"`
	JoinedAt time.Time `gorm:"not null" json:"joinedAt"`
}

// PairKey returns the order-independent key of a user pair.
func PairKey(userA, userB string) string {
	ids := []string{userA, userB}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// BeforeCreate generates the chat id and creation time when they are unset.
func (c *Chat) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return
}

// BeforeCreate generates the participant id and join time when they are unset.
func (p *Participant) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	return
}
