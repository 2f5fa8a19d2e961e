package chat_test

import (
	"context"
	"sync"

	"dmgo/backend/internal/events"
	"dmgo/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) FindChatByPair(ctx context.Context, userA, userB string) (*models.Chat, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}

func (m *MockStorage) CreateChatWithFirstMessage(ctx context.Context, currentUserID, otherUserID, content string, typ models.MessageType) (string, string, error) {
	args := m.Called(ctx, currentUserID, otherUserID, content, typ)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorage) AppendMessage(ctx context.Context, chatID, senderID, content string, typ models.MessageType) (string, error) {
	args := m.Called(ctx, chatID, senderID, content, typ)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) MarkRead(ctx context.Context, messageID, userID string) (bool, *models.Message, error) {
	args := m.Called(ctx, messageID, userID)
	if args.Get(1) == nil {
		return args.Bool(0), nil, args.Error(2)
	}
	return args.Bool(0), args.Get(1).(*models.Message), args.Error(2)
}

func (m *MockStorage) RemoveMessages(ctx context.Context, messageIDs []string, requesterID string) ([]models.Message, error) {
	args := m.Called(ctx, messageIDs, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) GetMessage(ctx context.Context, messageID string) (*models.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) ChatParticipants(ctx context.Context, chatID string) ([]string, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) UpdateAttachment(ctx context.Context, messageID, url string, duration int) error {
	args := m.Called(ctx, messageID, url, duration)
	return args.Error(0)
}

func (m *MockStorage) ChatsByUser(ctx context.Context, userID string, pageSize int, cursorChatID string) ([]models.ChatSummary, int, error) {
	args := m.Called(ctx, userID, pageSize, cursorChatID)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.ChatSummary), args.Int(1), args.Error(2)
}

func (m *MockStorage) MessagesByChat(ctx context.Context, userID, chatID string, pageSize int, cursorMessageID string) ([]models.MessageItem, int, error) {
	args := m.Called(ctx, userID, chatID, pageSize, cursorMessageID)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.MessageItem), args.Int(1), args.Error(2)
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

type MockMedia struct {
	mock.Mock
}

func (m *MockMedia) DeleteAttachments(ctx context.Context, messageIDs []string) error {
	args := m.Called(ctx, messageIDs)
	return args.Error(0)
}

type MockVoice struct {
	mock.Mock
}

func (m *MockVoice) TryOnce(ctx context.Context, messageID string) (models.Attachment, error) {
	args := m.Called(ctx, messageID)
	return args.Get(0).(models.Attachment), args.Error(1)
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}
