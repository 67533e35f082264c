package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/internal/chat/repository"
	"marketplace_chat_service/pkg/logger"
)

// SendMessageUseCase drives a send request through
// Received -> Authorized -> Persisted -> Broadcast -> Acknowledged. The
// storage collaborator is the single source of truth for message identity and
// ordering; persistence failure aborts before any fan-out.
type SendMessageUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	hub      *Hub
	notifier repository.EventPublisher // nil when no broker is configured

	maxContentLength int
	seq              sync.Map // conversationID -> *sync.Mutex
}

// NewSendMessageUseCase init the send message use case
func NewSendMessageUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	hub *Hub,
	notifier repository.EventPublisher,
	maxContentLength int,
) *SendMessageUseCase {
	return &SendMessageUseCase{
		convRepo:         convRepo,
		msgRepo:          msgRepo,
		hub:              hub,
		notifier:         notifier,
		maxContentLength: maxContentLength,
	}
}

// Execute send one message. Returns the persisted record synchronously,
// independent of broadcast delivery.
func (uc *SendMessageUseCase) Execute(ctx context.Context, conversationID, senderID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > uc.maxContentLength {
		return nil, domain.ErrInvalidContent
	}

	ok, err := uc.convRepo.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !ok {
		return nil, domain.ErrNotAParticipant
	}

	// Sequencing point: persist-then-broadcast is serialized per conversation
	// so every connection observes messages in persisted order. Unrelated
	// conversations are not serialized against each other.
	lock := uc.sequenceFor(conversationID)
	lock.Lock()
	defer lock.Unlock()

	msg, err := uc.msgRepo.CreateMessage(ctx, conversationID, senderID, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	// message is durable from here; fan-out and notification are best effort
	uc.hub.Broadcast(conversationID, domain.NewMessageEvent(*msg))

	if uc.notifier != nil {
		if err := uc.notifier.PublishMessageCreated(ctx, *msg); err != nil {
			logger.Log.Errorf("notification publish error:", err)
		}
	}

	return msg, nil
}

func (uc *SendMessageUseCase) sequenceFor(conversationID string) *sync.Mutex {
	lock, _ := uc.seq.LoadOrStore(conversationID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
