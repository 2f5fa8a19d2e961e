package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"dmgo/backend/internal/models"
	"dmgo/backend/internal/storage"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *storage.Service {
	t.Helper()

	db, err := storage.Open("sqlite", filepath.Join(t.TempDir(), "dm.db"))
	require.NoError(t, err, "open test store")
	require.NoError(t, storage.AutoMigrate(db), "migrate test store")

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return storage.NewStorageService(db)
}

// mustCreateChat creates a chat between sender and other whose first message is dated at.
func mustCreateChat(t *testing.T, s *storage.Service, sender, other, content string, at time.Time) (string, string) {
	t.Helper()

	chatID, messageID, err := s.CreateChatWithFirstMessage(context.Background(), sender, other, content, models.MessageTypeText)
	require.NoError(t, err)
	require.NoError(t, s.DB.Model(&models.Message{}).Where("id = ?", messageID).Update("created_at", at.UTC()).Error)
	return chatID, messageID
}

// mustAddMessage appends a message dated at.
func mustAddMessage(t *testing.T, s *storage.Service, chatID, sender, content string, at time.Time) string {
	t.Helper()

	msg := models.Message{ChatID: chatID, SenderID: sender, Content: content, Type: models.MessageTypeText, CreatedAt: at.UTC()}
	require.NoError(t, s.DB.Create(&msg).Error)
	return msg.ID
}

func countRows(t *testing.T, s *storage.Service, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var n int64
	q := s.DB.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
