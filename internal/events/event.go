package events

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Kind tags an Event.
type Kind string

const (
	KindNewMessage  Kind = "NewMessage"
	KindMessageRead Kind = "MessageRead"
)

// Event is a domain event raised after a command commits.
// For NewMessage the recipient is the other participant; for MessageRead it is the message sender.
type Event struct {
	Kind        Kind      `json:"kind"`
	MessageID   string    `json:"messageId"`
	RecipientID string    `json:"recipientId"`
	DeliveryID  string    `json:"deliveryId"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func newEvent(kind Kind, messageID, recipientID string) Event {
	return Event{
		Kind:        kind,
		MessageID:   messageID,
		RecipientID: recipientID,
		DeliveryID:  uuid.New().String(),
		OccurredAt:  time.Now().UTC(),
	}
}

func NewMessage(messageID, recipientID string) Event {
	return newEvent(KindNewMessage, messageID, recipientID)
}

func MessageRead(messageID, recipientID string) Event {
	return newEvent(KindMessageRead, messageID, recipientID)
}

// Validate rejects envelopes that cannot be delivered.
func (e Event) Validate() error {
	switch e.Kind {
	case KindNewMessage, KindMessageRead:
	default:
		return errors.New("unknown event kind: " + string(e.Kind))
	}
	if e.MessageID == "" || e.RecipientID == "" {
		return errors.New("event without message or recipient")
	}
	return nil
}
