package domain

// Action websocket request action
type Action string

const (
	// JoinConversation websocket action join
	JoinConversation Action = "join"
	// LeaveConversation websocket action leave
	LeaveConversation Action = "leave"
	// Typing websocket action typing
	Typing Action = "typing"
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// MarkRead websocket action mark_read
	MarkRead Action = "mark_read"
	// MarkAllRead websocket action mark_all_read
	MarkAllRead Action = "mark_all_read"
)

// EventType outbound event action emitted by the server
type EventType string

const (
	// EventMessageNew a message was persisted and fanned out
	EventMessageNew EventType = "message.new"
	// EventMessageRead one or more messages transitioned to read
	EventMessageRead EventType = "message.read"
	// EventTypingStart a participant started typing
	EventTypingStart EventType = "typing.start"
	// EventTypingStop a participant stopped typing or the window expired
	EventTypingStop EventType = "typing.stop"
)

// WSRequest websocket control frame
type WSRequest struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Content        string `json:"content"`
	IsTyping       bool   `json:"is_typing"`
}

// WSResponse websocket frame sent to clients. Request acks carry the request
// action; fan-out events carry an EventType as action.
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// NewMessageEvent build the message.new fan-out frame
func NewMessageEvent(msg Message) WSResponse {
	return WSResponse{
		Action:  string(EventMessageNew),
		Success: true,
		Payload: map[string]interface{}{
			"message_id":      msg.ID,
			"conversation_id": msg.ConversationID,
			"sender_id":       msg.SenderID,
			"content":         msg.Content,
			"created_at":      msg.CreatedAt,
		},
	}
}

// NewReadEvent build the message.read fan-out frame
func NewReadEvent(conversationID, readerID string, messageIDs []string, readAt int64) WSResponse {
	return WSResponse{
		Action:  string(EventMessageRead),
		Success: true,
		Payload: map[string]interface{}{
			"conversation_id": conversationID,
			"reader_id":       readerID,
			"message_ids":     messageIDs,
			"read_at":         readAt,
		},
	}
}

// NewTypingEvent build a typing.start / typing.stop fan-out frame
func NewTypingEvent(conversationID, userID string, typing bool) WSResponse {
	action := EventTypingStop
	if typing {
		action = EventTypingStart
	}
	return WSResponse{
		Action:  string(action),
		Success: true,
		Payload: map[string]interface{}{
			"conversation_id": conversationID,
			"user_id":         userID,
		},
	}
}
