package chathub

import (
	"context"

	"dmgo/backend/internal/events"
	"dmgo/backend/internal/models"

	"go.uber.org/zap"
)

// MessageSource loads the read model of a message.
type MessageSource interface {
	MessageView(ctx context.Context, messageID string) (models.MessageView, error)
}

// AttachmentResolver waits for a voice message's media.
type AttachmentResolver interface {
	Resolve(ctx context.Context, messageID string) (models.Attachment, error)
}

// Delivery pushes domain events to live connections.
type Delivery struct {
	registry *Registry
	messages MessageSource
	resolver AttachmentResolver
	users    ProfileLookup
	log      *zap.SugaredLogger
}

func NewDelivery(registry *Registry, messages MessageSource, resolver AttachmentResolver, users ProfileLookup, log *zap.SugaredLogger) *Delivery {
	return &Delivery{registry: registry, messages: messages, resolver: resolver, users: users, log: log}
}

// Handle re-reads the event's message, resolves voice media, enriches it with the sender's
// profile and fans it out to the recipient and the chat room. It has the events.Handler signature.
func (d *Delivery) Handle(ctx context.Context, ev events.Event) {
	view, err := d.messages.MessageView(ctx, ev.MessageID)
	if err != nil {
		d.log.Warnw("Failed to load message for delivery", "kind", ev.Kind, "messageId", ev.MessageID, "error", err)
		return
	}
	msg := view.Message

	if msg.NeedsResolution() && d.resolver != nil {
		att, err := d.resolver.Resolve(ctx, msg.ID)
		if err != nil {
			d.log.Infow("Dropping push for unresolved voice message", "kind", ev.Kind, "messageId", msg.ID, "error", err)
			return
		}
		duration := att.Duration
		msg.Content = att.URL
		msg.Duration = &duration
	}

	delivered := d.enrich(ctx, msg)

	switch ev.Kind {
	case events.KindNewMessage:
		d.registry.EmitToUser(ev.RecipientID, models.Frame{Event: models.EventNewMessage, Data: delivered})
		d.registry.EmitToRoom(msg.ChatID, models.Frame{Event: models.EventRoomNewMessage, Data: delivered})

	case events.KindMessageRead:
		receipt := models.ReadReceipt{
			MessageID: msg.ID,
			ChatID:    msg.ChatID,
			ReaderID:  view.OtherParticipant(ev.RecipientID),
			Message:   delivered,
		}
		frame := models.Frame{Event: models.EventMessageRead, Data: receipt}
		d.registry.EmitToUser(ev.RecipientID, frame)
		d.registry.EmitToRoom(msg.ChatID, frame)

	default:
		d.log.Warnw("Unknown event kind", "kind", ev.Kind)
	}
}

func (d *Delivery) enrich(ctx context.Context, msg models.Message) models.DeliveredMessage {
	delivered := models.DeliveredMessage{Message: msg}
	if d.users == nil {
		return delivered
	}

	profiles, err := d.users.GetUserProfiles(ctx, []string{msg.SenderID})
	if err != nil {
		d.log.Warnw("Failed to enrich message with sender profile", "messageId", msg.ID, "error", err)
		return delivered
	}
	for _, p := range profiles {
		if p.UserID == msg.SenderID {
			delivered.SenderUsername = p.Username
			delivered.SenderAvatarURL = p.AvatarURL
			delivered.SenderIsBanned = p.IsBanned
			break
		}
	}
	return delivered
}
