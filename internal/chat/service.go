package chat

import (
	"context"
	"errors"
	"strings"

	"dmgo/backend/internal/events"
	"dmgo/backend/internal/models"
	"dmgo/backend/internal/storage"

	"go.uber.org/zap"
)

// UserDirectory is the user-profile collaborator.
type UserDirectory interface {
	GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// MediaService is the media collaborator used when messages are removed.
type MediaService interface {
	DeleteAttachments(ctx context.Context, messageIDs []string) error
}

// VoiceResolver makes a single attempt to resolve a voice attachment.
type VoiceResolver interface {
	TryOnce(ctx context.Context, messageID string) (models.Attachment, error)
}

// Service runs chat commands and queries on top of the store and publishes domain events after commit.
type Service struct {
	store     storage.Storage
	users     UserDirectory
	media     MediaService
	voice     VoiceResolver
	publisher events.Publisher
	log       *zap.SugaredLogger
}

// NewService wires the command processor. users, media and voice may be nil, which disables
// the recipient check, attachment cleanup and read-time voice resolution respectively.
func NewService(store storage.Storage, users UserDirectory, media MediaService, voice VoiceResolver, publisher events.Publisher, log *zap.SugaredLogger) *Service {
	return &Service{
		store:     store,
		users:     users,
		media:     media,
		voice:     voice,
		publisher: publisher,
		log:       log,
	}
}

// SendMessage stores a message from the current participant to the other one, creating their chat
// on first contact, and publishes NewMessage to the recipient.
func (s *Service) SendMessage(ctx context.Context, cmd models.SendMessageCommand) (models.SendResult, error) {
	if err := validateSend(&cmd); err != nil {
		return models.SendResult{}, err
	}

	if s.users != nil {
		if _, err := s.users.GetUserProfile(ctx, cmd.ParticipantID); err != nil {
			return models.SendResult{}, mapError(err, "recipient "+cmd.ParticipantID)
		}
	}

	chatID, messageID, err := s.writeMessage(ctx, cmd)
	if err != nil {
		return models.SendResult{}, mapError(err, "chat")
	}

	s.publish(ctx, events.NewMessage(messageID, cmd.ParticipantID))
	return models.SendResult{ChatID: chatID, MessageID: messageID}, nil
}

func (s *Service) writeMessage(ctx context.Context, cmd models.SendMessageCommand) (string, string, error) {
	chat, err := s.store.FindChatByPair(ctx, cmd.CurrentParticipantID, cmd.ParticipantID)
	if err == nil {
		messageID, err := s.store.AppendMessage(ctx, chat.ID, cmd.CurrentParticipantID, cmd.Message, cmd.Type)
		return chat.ID, messageID, err
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", "", err
	}

	chatID, messageID, err := s.store.CreateChatWithFirstMessage(ctx, cmd.CurrentParticipantID, cmd.ParticipantID, cmd.Message, cmd.Type)
	if !errors.Is(err, storage.ErrChatExists) {
		return chatID, messageID, err
	}

	// lost the creation race; the other writer's chat is committed now
	s.log.Debugw("Chat created concurrently, appending", "sender", cmd.CurrentParticipantID, "recipient", cmd.ParticipantID)
	chat, err = s.store.FindChatByPair(ctx, cmd.CurrentParticipantID, cmd.ParticipantID)
	if err != nil {
		return "", "", err
	}
	messageID, err = s.store.AppendMessage(ctx, chat.ID, cmd.CurrentParticipantID, cmd.Message, cmd.Type)
	return chat.ID, messageID, err
}

func validateSend(cmd *models.SendMessageCommand) error {
	cmd.CurrentParticipantID = strings.TrimSpace(cmd.CurrentParticipantID)
	cmd.ParticipantID = strings.TrimSpace(cmd.ParticipantID)

	switch {
	case cmd.CurrentParticipantID == "":
		return validationf("currentParticipantId is required")
	case cmd.ParticipantID == "":
		return validationf("participantId is required")
	case cmd.CurrentParticipantID == cmd.ParticipantID:
		return validationf("cannot send a message to yourself")
	case strings.TrimSpace(cmd.Message) == "":
		return validationf("message is required")
	}

	if cmd.Type == "" {
		cmd.Type = models.MessageTypeText
	}
	if !cmd.Type.Valid() {
		return validationf("unknown message type %q", cmd.Type)
	}
	return nil
}

// ReadMessage marks a message read. The sender is notified only the first time someone else reads it.
func (s *Service) ReadMessage(ctx context.Context, cmd models.ReadMessageCommand) error {
	if cmd.UserID == "" || cmd.MessageID == "" {
		return validationf("userId and messageId are required")
	}

	created, msg, err := s.store.MarkRead(ctx, cmd.MessageID, cmd.UserID)
	if err != nil {
		return mapError(err, "message "+cmd.MessageID)
	}

	if created && msg.SenderID != cmd.UserID {
		s.publish(ctx, events.MessageRead(msg.ID, msg.SenderID))
	}
	return nil
}

// RemoveMessages deletes the requester's messages and asks the media service to discard their media.
func (s *Service) RemoveMessages(ctx context.Context, cmd models.RemoveMessagesCommand) ([]string, error) {
	if cmd.CurrentUserID == "" {
		return nil, validationf("currentUserId is required")
	}
	if len(cmd.MessageIDs) == 0 {
		return nil, validationf("messageIds must not be empty")
	}
	for _, id := range cmd.MessageIDs {
		if id == "" {
			return nil, validationf("messageIds must not contain empty ids")
		}
	}

	removed, err := s.store.RemoveMessages(ctx, cmd.MessageIDs, cmd.CurrentUserID)
	if err != nil {
		return nil, mapError(err, "messages")
	}

	ids := make([]string, 0, len(removed))
	var withMedia []string
	for _, msg := range removed {
		ids = append(ids, msg.ID)
		if msg.Type.HasAttachment() {
			withMedia = append(withMedia, msg.ID)
		}
	}

	if s.media != nil && len(withMedia) > 0 {
		if err := s.media.DeleteAttachments(ctx, withMedia); err != nil {
			s.log.Warnw("Failed to delete attachments", "messageIds", withMedia, "error", err)
		}
	}
	return ids, nil
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Errorw("Failed to publish event", "kind", ev.Kind, "messageId", ev.MessageID, "error", err)
	}
}
