package models

import "time"

// SendMessageCommand asks to send a message from CurrentParticipantID to ParticipantID.
type SendMessageCommand struct {
	CurrentParticipantID string      `json:"currentParticipantId"`
	ParticipantID        string      `json:"participantId"`
	Message              string      `json:"message"`
	Type                 MessageType `json:"type"`
}

// SendResult identifies the chat and message written by a SendMessageCommand.
type SendResult struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

// ReadMessageCommand marks MessageID as read by UserID.
type ReadMessageCommand struct {
	UserID    string `json:"userId"`
	MessageID string `json:"messageId"`
}

// RemoveMessagesCommand removes messages sent by CurrentUserID.
type RemoveMessagesCommand struct {
	CurrentUserID string   `json:"currentUserId"`
	MessageIDs    []string `json:"messageIds"`
}

// ChatsByUserQuery requests one page of a user's chats ordered by last activity.
type ChatsByUserQuery struct {
	UserID          string `json:"userId"`
	PageSize        int    `json:"pageSize"`
	PageNumber      int    `json:"pageNumber"`
	EndCursorChatID string `json:"endCursorChatId,omitempty"`
}

// MessagesByChatQuery requests one page of a chat's messages, newest first.
type MessagesByChatQuery struct {
	UserID             string `json:"userId"`
	ChatID             string `json:"chatId"`
	EndCursorMessageID string `json:"endCursorMessageId,omitempty"`
	PageSize           int    `json:"pageSize"`
	PageNumber         int    `json:"pageNumber"`
}

// LastMessage is the most recent message of a chat as shown in a chat list.
type LastMessage struct {
	ID        string      `json:"id"`
	SenderID  string      `json:"senderId"`
	Content   string      `json:"content"`
	Type      MessageType `json:"type"`
	Duration  *int        `json:"duration,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ChatSummary is one row of ChatsByUser.
type ChatSummary struct {
	ChatID        string      `json:"chatId"`
	ParticipantID string      `json:"participantId"`
	LastMessage   LastMessage `json:"lastMessage"`
	IsMine        bool        `json:"isMine"`
}

// MessageItem is one row of MessagesByChat with read state split by reader.
type MessageItem struct {
	Message
	IsMine                bool       `json:"isMine"`
	IsRead                bool       `json:"isRead"`
	ReadAt                *time.Time `json:"readAt,omitempty"`
	ParticipantReadStatus bool       `json:"participantReadStatus"`
	ParticipantReadAt     *time.Time `json:"participantReadAt,omitempty"`
}

// PaginationMeta describes a page within the full result set.
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is a keyset-paginated result.
type Page[T any] struct {
	Items      []T            `json:"items"`
	Total      int            `json:"total"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewPaginationMeta builds the page counters for a result of total rows.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	totalPages := 0
	if total > 0 && pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// MessageView is the read model the gateway fetches before pushing a message.
type MessageView struct {
	Message      Message  `json:"message"`
	Participants []string `json:"participants"`
}

// OtherParticipant returns the participant of the view that is not userID, or userID itself.
func (v MessageView) OtherParticipant(userID string) string {
	for _, id := range v.Participants {
		if id != userID {
			return id
		}
	}
	return userID
}
