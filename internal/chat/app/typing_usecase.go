package app

import (
	"context"
	"sync"
	"time"

	"marketplace_chat_service/internal/chat/domain"
)

// TypingCoordinator owns the ephemeral typing state. Entries live only in
// memory with an expiry deadline; a background sweep emits the typing.stop a
// crashed client never sent. Nothing here survives a restart, which is
// correct for an advisory signal.
type TypingCoordinator struct {
	hub *Hub
	ttl time.Duration

	mu        sync.Mutex
	deadlines map[string]map[string]time.Time // conversationID -> userID -> deadline
}

// NewTypingCoordinator create a TypingCoordinator with the given expiry window
func NewTypingCoordinator(hub *Hub, ttl time.Duration) *TypingCoordinator {
	return &TypingCoordinator{
		hub:       hub,
		ttl:       ttl,
		deadlines: make(map[string]map[string]time.Time),
	}
}

// SetTyping record or refresh the typing signal. true broadcasts
// typing.start and arms the expiry; false clears immediately and broadcasts
// typing.stop if a signal was active.
func (tc *TypingCoordinator) SetTyping(conversationID, userID string, isTyping bool) {
	if isTyping {
		tc.mu.Lock()
		users := tc.deadlines[conversationID]
		if users == nil {
			users = make(map[string]time.Time)
			tc.deadlines[conversationID] = users
		}
		users[userID] = time.Now().Add(tc.ttl)
		tc.mu.Unlock()

		tc.hub.Broadcast(conversationID, domain.NewTypingEvent(conversationID, userID, true))
		return
	}

	tc.mu.Lock()
	users := tc.deadlines[conversationID]
	_, active := users[userID]
	if active {
		delete(users, userID)
		if len(users) == 0 {
			delete(tc.deadlines, conversationID)
		}
	}
	tc.mu.Unlock()

	if active {
		tc.hub.Broadcast(conversationID, domain.NewTypingEvent(conversationID, userID, false))
	}
}

// Run sweep expired entries until ctx is cancelled
func (tc *TypingCoordinator) Run(ctx context.Context) {
	interval := tc.ttl / 3
	if interval < 50*time.Millisecond {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tc.sweep(now)
		}
	}
}

type typingKey struct {
	conversationID string
	userID         string
}

func (tc *TypingCoordinator) sweep(now time.Time) {
	tc.mu.Lock()
	var expired []typingKey
	for conversationID, users := range tc.deadlines {
		for userID, deadline := range users {
			if now.After(deadline) {
				expired = append(expired, typingKey{conversationID, userID})
				delete(users, userID)
			}
		}
		if len(users) == 0 {
			delete(tc.deadlines, conversationID)
		}
	}
	tc.mu.Unlock()

	for _, key := range expired {
		tc.hub.Broadcast(key.conversationID, domain.NewTypingEvent(key.conversationID, key.userID, false))
	}
}
