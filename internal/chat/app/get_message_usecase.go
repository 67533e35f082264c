package app

import (
	"context"
	"fmt"
	"time"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/internal/chat/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// GetMessageUseCase paged history fetch so a rejoining client can backfill a
// thread without the live path
type GetMessageUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
}

// NewGetMessageUseCase init the history use case
func NewGetMessageUseCase(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) *GetMessageUseCase {
	return &GetMessageUseCase{convRepo: convRepo, msgRepo: msgRepo}
}

// Execute return up to limit messages of the conversation created before the
// given timestamp (microseconds; zero means now), ascending.
func (uc *GetMessageUseCase) Execute(ctx context.Context, conversationID, requesterID string, before int64, limit int) ([]domain.Message, error) {
	ok, err := uc.convRepo.IsParticipant(ctx, conversationID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !ok {
		return nil, domain.ErrNotAParticipant
	}

	if before <= 0 {
		before = time.Now().UnixMicro()
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	messages, err := uc.msgRepo.FindMessagesBefore(ctx, conversationID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return messages, nil
}
