package app

import (
	"context"
	"sync"

	"marketplace_chat_service/internal/chat/domain"

	"github.com/google/uuid"
)

// memoryStore in-memory storage collaborator for the end-to-end and BDD
// tests. Satisfies both repository interfaces. CreatedAt is a counter, which
// keeps per-conversation ordering strict without depending on the wall clock.
type memoryStore struct {
	mu           sync.Mutex
	participants map[string][]string // conversationID -> userIDs
	messages     []*domain.Message
	clock        int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		participants: make(map[string][]string),
	}
}

func (s *memoryStore) addConversation(conversationID string, users ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[conversationID] = users
}

func (s *memoryStore) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.participants[conversationID] {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) Participants(_ context.Context, conversationID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.participants[conversationID]...), nil
}

func (s *memoryStore) CreateMessage(_ context.Context, conversationID, senderID, content string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock++
	msg := &domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      s.clock,
	}
	s.messages = append(s.messages, msg)
	copied := *msg
	return &copied, nil
}

func (s *memoryStore) FindByID(_ context.Context, messageID string) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == messageID {
			copied := *m
			return &copied, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (s *memoryStore) FindUnread(_ context.Context, conversationID, excludingSender string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.SenderID != excludingSender && m.ReadAt == nil {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func (s *memoryStore) MarkMessagesRead(_ context.Context, messageIDs []string, readAt int64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[string]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = struct{}{}
	}

	var updated []string
	for _, m := range s.messages {
		if _, ok := wanted[m.ID]; ok && m.ReadAt == nil {
			at := readAt
			m.ReadAt = &at
			updated = append(updated, m.ID)
		}
	}
	return updated, nil
}

func (s *memoryStore) CountUnread(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, m := range s.messages {
		if m.ReadAt != nil || m.SenderID == userID {
			continue
		}
		for _, u := range s.participants[m.ConversationID] {
			if u == userID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (s *memoryStore) CountUnreadByConversation(_ context.Context, userID string) ([]domain.ConversationUnreadInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byConv := make(map[string]*domain.ConversationUnreadInfo)
	for _, m := range s.messages {
		if m.ReadAt != nil || m.SenderID == userID {
			continue
		}
		member := false
		for _, u := range s.participants[m.ConversationID] {
			if u == userID {
				member = true
				break
			}
		}
		if !member {
			continue
		}
		info := byConv[m.ConversationID]
		if info == nil {
			info = &domain.ConversationUnreadInfo{ConversationID: m.ConversationID}
			byConv[m.ConversationID] = info
		}
		info.UnreadCount++
		if m.CreatedAt > info.LastUnreadTimeStamp {
			info.LastUnreadTimeStamp = m.CreatedAt
		}
	}

	var infos []domain.ConversationUnreadInfo
	for _, info := range byConv {
		infos = append(infos, *info)
	}
	return infos, nil
}

func (s *memoryStore) FindMessagesBefore(_ context.Context, conversationID string, before int64, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var page []domain.Message
	for _, m := range s.messages {
		if m.ConversationID == conversationID && m.CreatedAt < before {
			page = append(page, *m)
		}
	}
	if len(page) > limit {
		page = page[len(page)-limit:]
	}
	return page, nil
}

func (s *memoryStore) messageByID(messageID string) *domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == messageID {
			copied := *m
			return &copied
		}
	}
	return nil
}

func (s *memoryStore) messageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
