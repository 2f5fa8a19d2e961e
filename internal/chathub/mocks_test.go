package chathub_test

import (
	"context"

	"dmgo/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockAPI is a testify mock of the conversation service client.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) SendMessage(ctx context.Context, cmd models.SendMessageCommand) (models.SendResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(models.SendResult), args.Error(1)
}

func (m *MockAPI) ReadMessage(ctx context.Context, cmd models.ReadMessageCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

func (m *MockAPI) RemoveMessages(ctx context.Context, cmd models.RemoveMessagesCommand) ([]string, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAPI) MessageView(ctx context.Context, messageID string) (models.MessageView, error) {
	args := m.Called(ctx, messageID)
	return args.Get(0).(models.MessageView), args.Error(1)
}

func (m *MockAPI) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) GetUserProfiles(ctx context.Context, userIDs []string) ([]models.UserProfile, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserProfile), args.Error(1)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, messageID string) (models.Attachment, error) {
	args := m.Called(ctx, messageID)
	return args.Get(0).(models.Attachment), args.Error(1)
}
