package repository

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

// ConversationRepository definition conversation membership lookups. The
// storage collaborator owns conversations and participants; this core only
// consumes them to authorize join/send/read operations.
type ConversationRepository interface {
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	Participants(ctx context.Context, conversationID string) ([]string, error)
}

type conversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository create a ConversationRepository
func NewConversationRepository(db *pgxpool.Pool) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM conversation_participant WHERE conversation_id = $1 AND user_id = $2)",
		conversationID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *conversationRepository) Participants(ctx context.Context, conversationID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		"SELECT user_id FROM conversation_participant WHERE conversation_id = $1 ORDER BY user_id",
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
