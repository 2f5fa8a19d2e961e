package storage

import (
	"context"
	"errors"
	"fmt"

	"dmgo/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrForbidden  = errors.New("forbidden")
	ErrChatExists = errors.New("chat already exists for this pair")
)

// Storage is the Conversation Store together with the Pagination Query Engine.
type Storage interface {
	FindChatByPair(ctx context.Context, userA, userB string) (*models.Chat, error)
	CreateChatWithFirstMessage(ctx context.Context, currentUserID, otherUserID, content string, typ models.MessageType) (chatID, messageID string, err error)
	AppendMessage(ctx context.Context, chatID, senderID, content string, typ models.MessageType) (string, error)
	MarkRead(ctx context.Context, messageID, userID string) (bool, *models.Message, error)
	RemoveMessages(ctx context.Context, messageIDs []string, requesterID string) ([]models.Message, error)

	GetMessage(ctx context.Context, messageID string) (*models.Message, error)
	ChatParticipants(ctx context.Context, chatID string) ([]string, error)
	IsParticipant(ctx context.Context, chatID, userID string) (bool, error)
	UpdateAttachment(ctx context.Context, messageID, url string, duration int) error

	ChatsByUser(ctx context.Context, userID string, pageSize int, cursorChatID string) ([]models.ChatSummary, int, error)
	MessagesByChat(ctx context.Context, userID, chatID string, pageSize int, cursorMessageID string) ([]models.MessageItem, int, error)
}

type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// FindChatByPair returns the chat between two users, or ErrNotFound.
func (s *Service) FindChatByPair(ctx context.Context, userA, userB string) (*models.Chat, error) {
	var chat models.Chat
	err := s.DB.WithContext(ctx).Where("pair_key = ?", models.PairKey(userA, userB)).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// CreateChatWithFirstMessage creates the chat, both participants and the first message in one transaction.
// A concurrent creation for the same pair surfaces as ErrChatExists.
func (s *Service) CreateChatWithFirstMessage(ctx context.Context, currentUserID, otherUserID, content string, typ models.MessageType) (string, string, error) {
	var chatID, messageID string

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat := models.Chat{PairKey: models.PairKey(currentUserID, otherUserID)}
		if err := tx.Create(&chat).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrChatExists
			}
			return fmt.Errorf("create chat: %w", err)
		}

		participants := []models.Participant{
			{ChatID: chat.ID, UserID: currentUserID, JoinedAt: chat.CreatedAt},
			{ChatID: chat.ID, UserID: otherUserID, JoinedAt: chat.CreatedAt},
		}
		if err := tx.Create(&participants).Error; err != nil {
			return fmt.Errorf("create participants: %w", err)
		}

		msg := models.Message{
			ChatID:    chat.ID,
			SenderID:  currentUserID,
			Content:   content,
			Type:      typ,
			CreatedAt: chat.CreatedAt,
		}
		if err := insertMessage(tx, &msg); err != nil {
			return err
		}

		chatID, messageID = chat.ID, msg.ID
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return chatID, messageID, nil
}

// AppendMessage inserts a message into an existing chat.
func (s *Service) AppendMessage(ctx context.Context, chatID, senderID, content string, typ models.MessageType) (string, error) {
	msg := models.Message{ChatID: chatID, SenderID: senderID, Content: content, Type: typ}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return insertMessage(tx, &msg)
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// insertMessage writes the message and the sender's own read status.
func insertMessage(tx *gorm.DB, msg *models.Message) error {
	if err := tx.Create(msg).Error; err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	status := models.MessageReadStatus{MessageID: msg.ID, UserID: msg.SenderID, ReadAt: msg.CreatedAt}
	if err := tx.Create(&status).Error; err != nil {
		return fmt.Errorf("create sender read status: %w", err)
	}
	return nil
}

// MarkRead records that userID read messageID. The returned bool is false when a status already existed.
func (s *Service) MarkRead(ctx context.Context, messageID, userID string) (bool, *models.Message, error) {
	msg, err := s.GetMessage(ctx, messageID)
	if err != nil {
		return false, nil, err
	}

	ok, err := s.IsParticipant(ctx, msg.ChatID, userID)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, ErrForbidden
	}

	status := models.MessageReadStatus{MessageID: messageID, UserID: userID}
	result := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&status)
	if result.Error != nil {
		return false, nil, fmt.Errorf("create read status: %w", result.Error)
	}

	return result.RowsAffected > 0, msg, nil
}

// RemoveMessages deletes the messages when every one of them was sent by requesterID.
// Nothing is deleted if any id is unknown or owned by someone else.
func (s *Service) RemoveMessages(ctx context.Context, messageIDs []string, requesterID string) ([]models.Message, error) {
	ids := uniqueStrings(messageIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	var removed []models.Message
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", ids).Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) != len(ids) {
			return ErrNotFound
		}
		for _, msg := range removed {
			if msg.SenderID != requesterID {
				return ErrForbidden
			}
		}

		if err := tx.Where("message_id IN ?", ids).Delete(&models.MessageReadStatus{}).Error; err != nil {
			return fmt.Errorf("delete read statuses: %w", err)
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// GetMessage returns a message by id, or ErrNotFound.
func (s *Service) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	var msg models.Message
	err := s.DB.WithContext(ctx).Where("id = ?", messageID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ChatParticipants returns the user ids of a chat's participants.
func (s *Service) ChatParticipants(ctx context.Context, chatID string) ([]string, error) {
	var userIDs []string
	if err := s.DB.WithContext(ctx).Model(&models.Participant{}).
		Where("chat_id = ?", chatID).
		Order("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, ErrNotFound
	}
	return userIDs, nil
}

// IsParticipant reports whether userID is a participant of chatID.
func (s *Service) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Participant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateAttachment replaces a voice message's reference with its resolved URL and duration.
func (s *Service) UpdateAttachment(ctx context.Context, messageID, url string, duration int) error {
	result := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"content":  url,
			"duration": duration,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
