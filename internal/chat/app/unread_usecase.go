package app

import (
	"context"
	"fmt"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/internal/chat/repository"
)

// UnreadUseCase pull-based unread totals for badges and conversation-list
// ordering. Pure read-side computation against the storage collaborator, so
// badge correctness never depends on socket delivery.
type UnreadUseCase struct {
	msgRepo repository.MessageRepository
}

// NewUnreadUseCase init the unread aggregator
func NewUnreadUseCase(msgRepo repository.MessageRepository) *UnreadUseCase {
	return &UnreadUseCase{msgRepo: msgRepo}
}

// CountUnread total unread messages authored by others, across every
// conversation the user participates in
func (uc *UnreadUseCase) CountUnread(ctx context.Context, userID string) (int, error) {
	count, err := uc.msgRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return count, nil
}

// Summary total plus the per-conversation breakdown, newest unread first
func (uc *UnreadUseCase) Summary(ctx context.Context, userID string) (*domain.UnreadSummary, error) {
	infos, err := uc.msgRepo.CountUnreadByConversation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	summary := &domain.UnreadSummary{Conversations: infos}
	for _, info := range infos {
		summary.Total += info.UnreadCount
	}
	return summary, nil
}
