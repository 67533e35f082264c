package domain

// Message definition one persisted conversation message. The storage layer is
// the authoritative owner: it assigns ID and CreatedAt, and CreatedAt is
// strictly increasing inside a conversation.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Content        string `json:"content"`
	CreatedAt      int64  `json:"created_at"`        // unix microseconds
	ReadAt         *int64 `json:"read_at,omitempty"` // nil until read
}

// IsRead check message already read
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// ConversationUnreadInfo definition unread count by conversation
type ConversationUnreadInfo struct {
	ConversationID      string `json:"conversation_id"`
	UnreadCount         int    `json:"unread_count"`
	LastUnreadTimeStamp int64  `json:"last_unread_timestamp"`
}

// UnreadSummary total unread for one user, consumed by header badges and
// conversation-list ordering
type UnreadSummary struct {
	Total         int                      `json:"total"`
	Conversations []ConversationUnreadInfo `json:"conversations"`
}
