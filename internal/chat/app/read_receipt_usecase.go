package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/internal/chat/repository"
	"marketplace_chat_service/pkg"
)

// ReadReceiptUseCase records read transitions and broadcasts them through the
// room fan-out path. A transition is applied exactly once per message;
// re-application is a successful no-op with no re-broadcast.
type ReadReceiptUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	hub      *Hub
}

// NewReadReceiptUseCase init the read receipt use case
func NewReadReceiptUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	hub *Hub,
) *ReadReceiptUseCase {
	return &ReadReceiptUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		hub:      hub,
	}
}

// MarkRead mark one incoming message read
func (uc *ReadReceiptUseCase) MarkRead(ctx context.Context, messageID, readerID string) error {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if msg.SenderID == readerID {
		return domain.ErrInvalidSelfRead
	}

	ok, err := uc.convRepo.IsParticipant(ctx, msg.ConversationID, readerID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !ok {
		return domain.ErrNotAParticipant
	}

	readAt := time.Now().UnixMicro()
	updated, err := uc.msgRepo.MarkMessagesRead(ctx, []string{msg.ID}, readAt)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !pkg.Contains(updated, msg.ID) {
		// already read
		return nil
	}

	uc.hub.Broadcast(msg.ConversationID, domain.NewReadEvent(msg.ConversationID, readerID, updated, readAt))
	return nil
}

// MarkAllRead mark every currently-unread incoming message of the
// conversation, used when a reader opens or focuses a thread. Messages
// persisted after the scan are simply left unread.
func (uc *ReadReceiptUseCase) MarkAllRead(ctx context.Context, conversationID, readerID string) error {
	ok, err := uc.convRepo.IsParticipant(ctx, conversationID, readerID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !ok {
		return domain.ErrNotAParticipant
	}

	ids, err := uc.msgRepo.FindUnread(ctx, conversationID, readerID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if len(ids) == 0 {
		return nil
	}

	readAt := time.Now().UnixMicro()
	updated, err := uc.msgRepo.MarkMessagesRead(ctx, ids, readAt)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if len(updated) == 0 {
		return nil
	}

	uc.hub.Broadcast(conversationID, domain.NewReadEvent(conversationID, readerID, updated, readAt))
	return nil
}
