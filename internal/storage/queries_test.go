package storage_test

import (
	"context"
	"testing"
	"time"

	"dmgo/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatsByUser_OrderAndCursorWalk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chatA, _ := mustCreateChat(t, s, "me", "alice", "a1", baseTime)
	chatB, _ := mustCreateChat(t, s, "bob", "me", "b1", baseTime.Add(time.Minute))
	chatC, _ := mustCreateChat(t, s, "me", "carol", "c1", baseTime.Add(2*time.Minute))
	// alice replies last, so chat A moves to the top
	mustAddMessage(t, s, chatA, "alice", "a2", baseTime.Add(3*time.Minute))
	// a chat the user is not part of
	mustCreateChat(t, s, "x", "y", "noise", baseTime.Add(4*time.Minute))

	page, total, err := s.ChatsByUser(ctx, "me", 10, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 3)
	assert.Equal(t, []string{chatA, chatC, chatB}, chatIDs(page))

	assert.Equal(t, "alice", page[0].ParticipantID)
	assert.Equal(t, "a2", page[0].LastMessage.Content)
	assert.False(t, page[0].IsMine)
	assert.Equal(t, "carol", page[1].ParticipantID)
	assert.True(t, page[1].IsMine)
	assert.Equal(t, "bob", page[2].ParticipantID)
	assert.False(t, page[2].IsMine)

	var walked []string
	cursor := ""
	for i := 0; i < 5; i++ {
		page, total, err := s.ChatsByUser(ctx, "me", 1, cursor)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		if len(page) == 0 {
			break
		}
		require.Len(t, page, 1)
		walked = append(walked, page[0].ChatID)
		cursor = page[0].ChatID
	}
	assert.Equal(t, []string{chatA, chatC, chatB}, walked, "pages of one visit every chat once in order")
}

func TestChatsByUser_TiedTimestamps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids := map[string]bool{}
	for _, other := range []string{"p1", "p2", "p3"} {
		chatID, _ := mustCreateChat(t, s, "me", other, "same time", baseTime)
		ids[chatID] = true
	}

	seen := map[string]bool{}
	cursor := ""
	for i := 0; i < 5; i++ {
		page, _, err := s.ChatsByUser(ctx, "me", 2, cursor)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, item := range page {
			assert.False(t, seen[item.ChatID], "chat %s returned twice", item.ChatID)
			seen[item.ChatID] = true
		}
		cursor = page[len(page)-1].ChatID
	}
	assert.Equal(t, ids, seen)
}

func TestChatsByUser_Cursor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mine, _ := mustCreateChat(t, s, "me", "alice", "hi", baseTime)
	foreign, _ := mustCreateChat(t, s, "x", "y", "hi", baseTime)

	page, _, err := s.ChatsByUser(ctx, "me", 10, mine)
	require.NoError(t, err)
	assert.Empty(t, page, "nothing is older than the only chat")

	_, _, err = s.ChatsByUser(ctx, "me", 10, foreign)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, _, err = s.ChatsByUser(ctx, "me", 10, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	page, total, err := s.ChatsByUser(ctx, "nobody", 10, "")
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Zero(t, total)
}

func TestMessagesByChat_HelloScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chatID, messageID, err := s.CreateChatWithFirstMessage(ctx, "u1", "u2", "hello", "TEXT")
	require.NoError(t, err)

	items, total, err := s.MessagesByChat(ctx, "u2", chatID, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, messageID, items[0].ID)
	assert.False(t, items[0].IsMine)
	assert.False(t, items[0].IsRead)
	assert.True(t, items[0].ParticipantReadStatus, "the sender has read their own message")

	items, _, err = s.MessagesByChat(ctx, "u1", chatID, 10, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].IsMine)
	assert.True(t, items[0].IsRead)
	assert.False(t, items[0].ParticipantReadStatus)

	created, _, err := s.MarkRead(ctx, messageID, "u2")
	require.NoError(t, err)
	require.True(t, created)

	items, _, err = s.MessagesByChat(ctx, "u1", chatID, 10, "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].ParticipantReadStatus)
	require.NotNil(t, items[0].ParticipantReadAt)
}

func TestMessagesByChat_CursorWalk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chatID, first := mustCreateChat(t, s, "u1", "u2", "m0", baseTime)
	want := []string{first}
	for i, content := range []string{"m1", "m2", "m3", "m4"} {
		want = append(want, mustAddMessage(t, s, chatID, "u2", content, baseTime.Add(time.Duration(i+1)*time.Second)))
	}
	// same timestamp as m4
	want = append(want, mustAddMessage(t, s, chatID, "u1", "m5", baseTime.Add(4*time.Second)))

	var walked []string
	cursor := ""
	for i := 0; i < 10; i++ {
		items, total, err := s.MessagesByChat(ctx, "u1", chatID, 2, cursor)
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		if len(items) == 0 {
			break
		}
		for j := 1; j < len(items); j++ {
			assert.False(t, items[j].CreatedAt.After(items[j-1].CreatedAt), "newest first")
		}
		for _, item := range items {
			walked = append(walked, item.ID)
		}
		cursor = items[len(items)-1].ID
	}

	assert.Len(t, walked, len(want))
	assert.ElementsMatch(t, want, walked)
}

func TestMessagesByChat_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	chatID, _ := mustCreateChat(t, s, "u1", "u2", "hi", baseTime)
	otherChat, otherMessage := mustCreateChat(t, s, "u3", "u4", "hi", baseTime)
	require.NotEqual(t, chatID, otherChat)

	_, _, err := s.MessagesByChat(ctx, "u1", "missing", 10, "")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, _, err = s.MessagesByChat(ctx, "u1", chatID, 10, otherMessage)
	assert.ErrorIs(t, err, storage.ErrNotFound, "a cursor from another chat is rejected")

	_, _, err = s.MessagesByChat(ctx, "u1", chatID, 10, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
