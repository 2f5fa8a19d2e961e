package chat

import (
	"context"

	"dmgo/backend/internal/config"
	"dmgo/backend/internal/models"

	"golang.org/x/sync/errgroup"
)

// ChatsByUser returns one page of the user's chats, most recent activity first.
func (s *Service) ChatsByUser(ctx context.Context, q models.ChatsByUserQuery) (models.Page[models.ChatSummary], error) {
	if q.UserID == "" {
		return models.Page[models.ChatSummary]{}, validationf("userId is required")
	}
	pageSize, pageNumber, err := normalizePage(q.PageSize, q.PageNumber)
	if err != nil {
		return models.Page[models.ChatSummary]{}, err
	}

	items, total, err := s.store.ChatsByUser(ctx, q.UserID, pageSize, q.EndCursorChatID)
	if err != nil {
		return models.Page[models.ChatSummary]{}, mapError(err, "chat "+q.EndCursorChatID)
	}

	var (
		pending []*models.Message
		owners  []int
	)
	for i := range items {
		last := items[i].LastMessage
		if last.Type == models.MessageTypeVoice && last.Duration == nil {
			pending = append(pending, &models.Message{ID: last.ID, ChatID: items[i].ChatID, SenderID: last.SenderID, Content: last.Content, Type: last.Type})
			owners = append(owners, i)
		}
	}
	s.resolvePending(ctx, pending)
	for j, msg := range pending {
		items[owners[j]].LastMessage.Content = msg.Content
		items[owners[j]].LastMessage.Duration = msg.Duration
	}

	return models.Page[models.ChatSummary]{
		Items:      items,
		Total:      total,
		Pagination: models.NewPaginationMeta(pageNumber, pageSize, total),
	}, nil
}

// MessagesByChat returns one page of a chat's messages, newest first. Only participants may read a chat.
// Voice messages still waiting for their attachment get one more resolution attempt.
func (s *Service) MessagesByChat(ctx context.Context, q models.MessagesByChatQuery) (models.Page[models.MessageItem], error) {
	if q.UserID == "" || q.ChatID == "" {
		return models.Page[models.MessageItem]{}, validationf("userId and chatId are required")
	}
	pageSize, pageNumber, err := normalizePage(q.PageSize, q.PageNumber)
	if err != nil {
		return models.Page[models.MessageItem]{}, err
	}

	if err := s.requireParticipant(ctx, q.ChatID, q.UserID); err != nil {
		return models.Page[models.MessageItem]{}, err
	}

	items, total, err := s.store.MessagesByChat(ctx, q.UserID, q.ChatID, pageSize, q.EndCursorMessageID)
	if err != nil {
		return models.Page[models.MessageItem]{}, mapError(err, "message "+q.EndCursorMessageID)
	}

	var pending []*models.Message
	for i := range items {
		if items[i].NeedsResolution() {
			pending = append(pending, &items[i].Message)
		}
	}
	s.resolvePending(ctx, pending)

	return models.Page[models.MessageItem]{
		Items:      items,
		Total:      total,
		Pagination: models.NewPaginationMeta(pageNumber, pageSize, total),
	}, nil
}

// resolvePending makes one bounded attempt per unresolved voice message, several at a time.
// Messages that stay unresolved lose their internal media reference.
func (s *Service) resolvePending(ctx context.Context, pending []*models.Message) {
	if len(pending) == 0 {
		return
	}

	if s.voice != nil {
		var g errgroup.Group
		g.SetLimit(config.ReadResolveConcurrency)
		for _, msg := range pending {
			g.Go(func() error {
				s.resolveVoice(ctx, msg)
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, msg := range pending {
		if msg.NeedsResolution() {
			msg.Content = ""
		}
	}
}

func (s *Service) resolveVoice(ctx context.Context, msg *models.Message) {
	attemptCtx, cancel := context.WithTimeout(ctx, config.ReadResolveTimeout)
	defer cancel()

	att, err := s.voice.TryOnce(attemptCtx, msg.ID)
	if err != nil {
		s.log.Debugw("Voice attachment still unresolved", "messageId", msg.ID, "error", err)
		return
	}
	if err := s.store.UpdateAttachment(ctx, msg.ID, att.URL, att.Duration); err != nil {
		s.log.Warnw("Failed to persist voice attachment", "messageId", msg.ID, "error", err)
	}

	duration := att.Duration
	msg.Content = att.URL
	msg.Duration = &duration
}

// MessageView returns a message with its chat's participants.
func (s *Service) MessageView(ctx context.Context, messageID string) (models.MessageView, error) {
	if messageID == "" {
		return models.MessageView{}, validationf("messageId is required")
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return models.MessageView{}, mapError(err, "message "+messageID)
	}
	participants, err := s.store.ChatParticipants(ctx, msg.ChatID)
	if err != nil {
		return models.MessageView{}, mapError(err, "chat "+msg.ChatID)
	}

	return models.MessageView{Message: *msg, Participants: participants}, nil
}

// IsParticipant reports whether userID belongs to chatID. An unknown chat is ErrNotFound.
func (s *Service) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	if chatID == "" || userID == "" {
		return false, validationf("chatId and userId are required")
	}

	participants, err := s.store.ChatParticipants(ctx, chatID)
	if err != nil {
		return false, mapError(err, "chat "+chatID)
	}
	for _, id := range participants {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) requireParticipant(ctx context.Context, chatID, userID string) error {
	ok, err := s.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
