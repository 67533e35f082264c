package app

import (
	"context"
	"errors"
	"testing"

	"marketplace_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestUnread_CountAndSummary(t *testing.T) {
	store := newMemoryStore()
	store.addConversation("conv-1", "user-a", "user-b")
	store.addConversation("conv-2", "user-a", "user-c")
	hub := NewHub(store, nil)
	sendUC := NewSendMessageUseCase(store, store, hub, nil, 2000)
	readUC := NewReadReceiptUseCase(store, store, hub)
	uc := NewUnreadUseCase(store)

	for _, content := range []string{"one", "two"} {
		_, err := sendUC.Execute(context.Background(), "conv-1", "user-b", content)
		assert.NoError(t, err)
	}
	last, err := sendUC.Execute(context.Background(), "conv-2", "user-c", "three")
	assert.NoError(t, err)
	// own message never counts against the sender
	_, err = sendUC.Execute(context.Background(), "conv-1", "user-a", "reply")
	assert.NoError(t, err)

	total, err := uc.CountUnread(context.Background(), "user-a")
	assert.NoError(t, err)
	assert.Equal(t, 3, total)

	summary, err := uc.Summary(context.Background(), "user-a")
	assert.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	byConv := make(map[string]domain.ConversationUnreadInfo)
	for _, info := range summary.Conversations {
		byConv[info.ConversationID] = info
	}
	assert.Equal(t, 2, byConv["conv-1"].UnreadCount)
	assert.Equal(t, 1, byConv["conv-2"].UnreadCount)
	assert.Equal(t, last.CreatedAt, byConv["conv-2"].LastUnreadTimeStamp)

	// reads move the counters immediately
	assert.NoError(t, readUC.MarkAllRead(context.Background(), "conv-1", "user-a"))
	total, err = uc.CountUnread(context.Background(), "user-a")
	assert.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestUnread_EmptyState(t *testing.T) {
	store := newMemoryStore()
	store.addConversation("conv-1", "user-a", "user-b")
	uc := NewUnreadUseCase(store)

	total, err := uc.CountUnread(context.Background(), "user-a")
	assert.NoError(t, err)
	assert.Equal(t, 0, total)

	summary, err := uc.Summary(context.Background(), "user-a")
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Conversations)
}

func TestUnread_StorageFailure(t *testing.T) {
	msgRepo := new(MockMessageRepository)
	msgRepo.On("CountUnread", mock.Anything, "user-a").Return(0, errors.New("connection refused"))
	uc := NewUnreadUseCase(msgRepo)

	_, err := uc.CountUnread(context.Background(), "user-a")
	assert.ErrorIs(t, err, domain.ErrPersistence)
	msgRepo.AssertExpectations(t)
}
