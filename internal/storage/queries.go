package storage

import (
	"context"
	"fmt"

	"dmgo/backend/internal/models"
)

// chatsByUserSQL ranks every chat of the user by its last message (created_at, id) and keeps
// the newest one per chat. The sort key of a chat is its last message's (created_at, chat_id).
const chatsByUserSQL = `
WITH ranked AS (
	SELECT m.chat_id, m.id AS message_id, m.created_at,
		ROW_NUMBER() OVER (PARTITION BY m.chat_id ORDER BY m.created_at DESC, m.id DESC) AS rn
	FROM messages m
	JOIN participants p ON p.chat_id = m.chat_id AND p.user_id = ?
),
last_messages AS (
	SELECT chat_id, message_id, created_at FROM ranked WHERE rn = 1
)
SELECT lm.chat_id, lm.message_id,
	COALESCE((
		SELECT o.user_id FROM participants o
		WHERE o.chat_id = lm.chat_id AND o.user_id <> ?
		ORDER BY o.user_id
		LIMIT 1
	), ?) AS participant_id
FROM last_messages lm
%s
ORDER BY lm.created_at DESC, lm.chat_id DESC
LIMIT ?`

const chatsCursorClause = `
CROSS JOIN (SELECT created_at, chat_id FROM last_messages WHERE chat_id = ?) cur
WHERE lm.created_at < cur.created_at OR (lm.created_at = cur.created_at AND lm.chat_id < cur.chat_id)`

const chatsTotalSQL = `
SELECT COUNT(DISTINCT p.chat_id)
FROM participants p
JOIN messages m ON m.chat_id = p.chat_id
WHERE p.user_id = ?`

type chatRow struct {
	ChatID        string
	MessageID     string
	ParticipantID string
}

// ChatsByUser returns at most pageSize of the user's chats ordered by last message, newest first,
// starting strictly after cursorChatID when it is set. The int is the total number of such chats.
func (s *Service) ChatsByUser(ctx context.Context, userID string, pageSize int, cursorChatID string) ([]models.ChatSummary, int, error) {
	db := s.DB.WithContext(ctx)

	var total int64
	if err := db.Raw(chatsTotalSQL, userID).Scan(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count chats: %w", err)
	}

	args := []interface{}{userID, userID, userID}
	cursorClause := ""
	if cursorChatID != "" {
		ok, err := s.IsParticipant(ctx, cursorChatID, userID)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return nil, 0, ErrNotFound
		}
		cursorClause = chatsCursorClause
		args = append(args, cursorChatID)
	}
	args = append(args, pageSize)

	var rows []chatRow
	if err := db.Raw(fmt.Sprintf(chatsByUserSQL, cursorClause), args...).Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list chats: %w", err)
	}
	if len(rows) == 0 {
		return []models.ChatSummary{}, int(total), nil
	}

	messageIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		messageIDs = append(messageIDs, row.MessageID)
	}
	var messages []models.Message
	if err := db.Where("id IN ?", messageIDs).Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("load last messages: %w", err)
	}
	byID := make(map[string]models.Message, len(messages))
	for _, msg := range messages {
		byID[msg.ID] = msg
	}

	summaries := make([]models.ChatSummary, 0, len(rows))
	for _, row := range rows {
		msg, ok := byID[row.MessageID]
		if !ok {
			// removed between the two reads
			continue
		}
		summaries = append(summaries, models.ChatSummary{
			ChatID:        row.ChatID,
			ParticipantID: row.ParticipantID,
			LastMessage: models.LastMessage{
				ID:        msg.ID,
				SenderID:  msg.SenderID,
				Content:   msg.Content,
				Type:      msg.Type,
				Duration:  msg.Duration,
				CreatedAt: msg.CreatedAt,
			},
			IsMine: msg.SenderID == userID,
		})
	}

	return summaries, int(total), nil
}

// MessagesByChat returns at most pageSize messages of chatID, newest first, strictly older than
// cursorMessageID when it is set, with read state split between the caller and the other participant.
func (s *Service) MessagesByChat(ctx context.Context, userID, chatID string, pageSize int, cursorMessageID string) ([]models.MessageItem, int, error) {
	db := s.DB.WithContext(ctx)

	participants, err := s.ChatParticipants(ctx, chatID)
	if err != nil {
		return nil, 0, err
	}
	otherID := ""
	for _, id := range participants {
		if id != userID {
			otherID = id
			break
		}
	}

	var total int64
	if err := db.Model(&models.Message{}).Where("chat_id = ?", chatID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	query := db.Where("chat_id = ?", chatID)
	if cursorMessageID != "" {
		var count int64
		if err := db.Model(&models.Message{}).
			Where("id = ? AND chat_id = ?", cursorMessageID, chatID).
			Count(&count).Error; err != nil {
			return nil, 0, err
		}
		if count == 0 {
			return nil, 0, ErrNotFound
		}
		query = query.Where(
			"(created_at < (SELECT c.created_at FROM messages c WHERE c.id = ?) OR "+
				"(created_at = (SELECT c.created_at FROM messages c WHERE c.id = ?) AND id < ?))",
			cursorMessageID, cursorMessageID, cursorMessageID,
		)
	}

	var messages []models.Message
	if err := query.Order("created_at DESC").Order("id DESC").Limit(pageSize).Find(&messages).Error; err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	if len(messages) == 0 {
		return []models.MessageItem{}, int(total), nil
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	var statuses []models.MessageReadStatus
	if err := db.Where("message_id IN ?", ids).Find(&statuses).Error; err != nil {
		return nil, 0, fmt.Errorf("load read statuses: %w", err)
	}
	mine := make(map[string]models.MessageReadStatus)
	theirs := make(map[string]models.MessageReadStatus)
	for _, st := range statuses {
		switch {
		case st.UserID == userID:
			mine[st.MessageID] = st
		case otherID != "" && st.UserID == otherID:
			theirs[st.MessageID] = st
		}
	}

	items := make([]models.MessageItem, 0, len(messages))
	for _, msg := range messages {
		item := models.MessageItem{Message: msg, IsMine: msg.SenderID == userID}
		if st, ok := mine[msg.ID]; ok {
			readAt := st.ReadAt
			item.IsRead = true
			item.ReadAt = &readAt
		}
		if st, ok := theirs[msg.ID]; ok {
			readAt := st.ReadAt
			item.ParticipantReadStatus = true
			item.ParticipantReadAt = &readAt
		}
		items = append(items, item)
	}

	return items, int(total), nil
}
