package repository

import (
	"context"
	"errors"

	"marketplace_chat_service/internal/chat/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// MessageRepository definition the message side of the storage collaborator.
// CreateMessage assigns the identifier and the authoritative creation
// timestamp; MarkMessagesRead returns the identifiers actually transitioned so
// callers can stay idempotent.
type MessageRepository interface {
	CreateMessage(ctx context.Context, conversationID, senderID, content string) (*domain.Message, error)
	FindByID(ctx context.Context, messageID string) (*domain.Message, error)
	// FindUnread list unread message IDs of a conversation, excluding the
	// given sender, ordered by creation
	FindUnread(ctx context.Context, conversationID, excludingSender string) ([]string, error)
	MarkMessagesRead(ctx context.Context, messageIDs []string, readAt int64) ([]string, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	CountUnreadByConversation(ctx context.Context, userID string) ([]domain.ConversationUnreadInfo, error)
	FindMessagesBefore(ctx context.Context, conversationID string, before int64, limit int) ([]domain.Message, error)
}

type messageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository create a MessageRepository
func NewMessageRepository(db *pgxpool.Pool) MessageRepository {
	return &messageRepository{db: db}
}

// CreateMessage insert one message. created_at comes from the database clock
// but never goes backwards inside a conversation, so readers observe a total
// order per conversation regardless of dispatcher clock skew.
func (r *messageRepository) CreateMessage(ctx context.Context, conversationID, senderID, content string) (*domain.Message, error) {
	msg := &domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO message (id, conversation_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4,
			GREATEST(
				(extract(epoch FROM clock_timestamp()) * 1000000)::bigint,
				COALESCE((SELECT MAX(created_at) + 1 FROM message WHERE conversation_id = $2), 0)))
		RETURNING created_at`,
		msg.ID, conversationID, senderID, content).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *messageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.QueryRow(ctx,
		"SELECT id, conversation_id, sender_id, content, created_at, read_at FROM message WHERE id = $1",
		messageID).Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.CreatedAt, &msg.ReadAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) FindUnread(ctx context.Context, conversationID, excludingSender string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM message
		WHERE conversation_id = $1 AND sender_id <> $2 AND read_at IS NULL
		ORDER BY created_at`,
		conversationID, excludingSender)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkMessagesRead set read_at on the still-unread messages of the given set.
// Already-read messages are skipped, which makes re-application a no-op.
func (r *messageRepository) MarkMessagesRead(ctx context.Context, messageIDs []string, readAt int64) ([]string, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx,
		"UPDATE message SET read_at = $2 WHERE id = ANY($1) AND read_at IS NULL RETURNING id",
		messageIDs, readAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updated []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	return updated, rows.Err()
}

func (r *messageRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT count(*) FROM message m
		JOIN conversation_participant p ON p.conversation_id = m.conversation_id
		WHERE p.user_id = $1 AND m.sender_id <> $1 AND m.read_at IS NULL`,
		userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *messageRepository) CountUnreadByConversation(ctx context.Context, userID string) ([]domain.ConversationUnreadInfo, error) {
	rows, err := r.db.Query(ctx, `
		SELECT m.conversation_id, count(*), MAX(m.created_at) FROM message m
		JOIN conversation_participant p ON p.conversation_id = m.conversation_id
		WHERE p.user_id = $1 AND m.sender_id <> $1 AND m.read_at IS NULL
		GROUP BY m.conversation_id
		ORDER BY MAX(m.created_at) DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []domain.ConversationUnreadInfo
	for rows.Next() {
		var info domain.ConversationUnreadInfo
		if err := rows.Scan(&info.ConversationID, &info.UnreadCount, &info.LastUnreadTimeStamp); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (r *messageRepository) FindMessagesBefore(ctx context.Context, conversationID string, before int64, limit int) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, sender_id, content, created_at, read_at FROM message
		WHERE conversation_id = $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3`,
		conversationID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content, &msg.CreatedAt, &msg.ReadAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// ascending for the UI
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
