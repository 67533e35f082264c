package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/internal/chat/repository"
	"marketplace_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// backboneChannel shared pub/sub channel between delivery nodes
const backboneChannel = "chat:events"

// room live membership of one conversation, keyed by connection ID. Each room
// carries its own lock so broadcasts in unrelated conversations never contend.
type room struct {
	mu    sync.RWMutex
	conns map[string]*ClientConn
}

// Hub maps conversations to the connections currently subscribed to them and
// fans events out, best-effort per connection. With a Redis backbone attached
// it also relays events between delivery nodes.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room

	convRepo repository.ConversationRepository
	backbone *repository.RedisPubSub // nil on single-node deployments
	nodeID   string
}

// NewHub create a Hub. backbone may be nil.
func NewHub(convRepo repository.ConversationRepository, backbone *repository.RedisPubSub) *Hub {
	return &Hub{
		rooms:    make(map[string]*room),
		convRepo: convRepo,
		backbone: backbone,
		nodeID:   uuid.New().String(),
	}
}

// Join subscribe the connection to a conversation after the storage
// collaborator confirms membership. Idempotent. Returns the participant roster
// for presence display.
func (h *Hub) Join(ctx context.Context, conversationID string, conn *ClientConn) ([]string, error) {
	ok, err := h.convRepo.IsParticipant(ctx, conversationID, conn.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if !ok {
		return nil, domain.ErrNotAParticipant
	}

	// roster first: a failed join must leave no membership behind
	roster, err := h.convRepo.Participants(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	// insert under h.mu so a concurrent removeMember cannot unlink the room
	// between the lookup and the insert
	h.mu.Lock()
	rm := h.rooms[conversationID]
	if rm == nil {
		rm = &room{conns: make(map[string]*ClientConn)}
		h.rooms[conversationID] = rm
	}
	rm.mu.Lock()
	rm.conns[conn.ID] = conn
	rm.mu.Unlock()
	h.mu.Unlock()

	conn.trackJoin(conversationID)
	return roster, nil
}

// Leave drop the connection from the conversation. Idempotent; an empty room
// is garbage collected.
func (h *Hub) Leave(conversationID string, conn *ClientConn) {
	h.removeMember(conversationID, conn.ID)
	conn.trackLeave(conversationID)
}

// Evict remove a disconnected connection from every room it belonged to,
// called by the unregister path.
func (h *Hub) Evict(connID string, conversationIDs []string) {
	for _, conversationID := range conversationIDs {
		h.removeMember(conversationID, connID)
	}
}

func (h *Hub) removeMember(conversationID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rm := h.rooms[conversationID]
	if rm == nil {
		return
	}
	rm.mu.Lock()
	delete(rm.conns, connID)
	empty := len(rm.conns) == 0
	rm.mu.Unlock()

	if empty {
		delete(h.rooms, conversationID)
	}
}

// Members snapshot of the connection IDs in a conversation room
func (h *Hub) Members(conversationID string) []string {
	h.mu.RLock()
	rm := h.rooms[conversationID]
	h.mu.RUnlock()
	if rm == nil {
		return nil
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	ids := make([]string, 0, len(rm.conns))
	for id := range rm.conns {
		ids = append(ids, id)
	}
	return ids
}

// Broadcast deliver the event to every connection in the room, best effort. A
// failed or slow connection is dropped and logged, never surfaced to the
// sender. With a backbone attached the event is also published for sibling
// nodes.
func (h *Hub) Broadcast(conversationID string, event domain.WSResponse) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorf("broadcast marshal error:", err)
		return
	}
	h.deliverLocal(conversationID, payload)

	if h.backbone != nil {
		env := repository.BroadcastEnvelope{
			Origin:         h.nodeID,
			ConversationID: conversationID,
			Event:          event,
		}
		if err := h.backbone.Publish(backboneChannel, env); err != nil {
			logger.Log.Errorf("backbone publish error:", err)
		}
	}
}

func (h *Hub) deliverLocal(conversationID string, payload []byte) {
	h.mu.RLock()
	rm := h.rooms[conversationID]
	h.mu.RUnlock()
	if rm == nil {
		return
	}

	rm.mu.RLock()
	conns := make([]*ClientConn, 0, len(rm.conns))
	for _, conn := range rm.conns {
		conns = append(conns, conn)
	}
	rm.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			logger.Log.Warn("broadcast delivery failed",
				zap.String("connID", conn.ID),
				zap.String("conversationID", conversationID),
				zap.Error(err))
		}
	}
}

// RunBackbone subscribe to the shared channel and deliver events published by
// sibling nodes to local members. No-op without a backbone.
func (h *Hub) RunBackbone(ctx context.Context) error {
	if h.backbone == nil {
		return nil
	}
	return h.backbone.Subscribe(ctx, backboneChannel, func(env repository.BroadcastEnvelope) {
		if env.Origin == h.nodeID {
			return
		}
		payload, err := json.Marshal(env.Event)
		if err != nil {
			logger.Log.Errorf("backbone event marshal error:", err)
			return
		}
		h.deliverLocal(env.ConversationID, payload)
	})
}
