package app

import (
	"context"
	"sync"
	"time"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// ConnRegistry tracks every live connection keyed by connection ID. A user may
// hold several connections (tabs, devices). The registry never touches rooms
// itself; Unregister hands the joined set back so the hub can evict.
type ConnRegistry struct {
	mu          sync.RWMutex
	conns       map[string]*ClientConn
	byUser      map[string]map[string]struct{}
	idleTimeout time.Duration
}

// NewConnRegistry create a ConnRegistry with the given idle window
func NewConnRegistry(idleTimeout time.Duration) *ConnRegistry {
	return &ConnRegistry{
		conns:       make(map[string]*ClientConn),
		byUser:      make(map[string]map[string]struct{}),
		idleTimeout: idleTimeout,
	}
}

// Register store the connection mapping
func (r *ConnRegistry) Register(conn *ClientConn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[conn.ID]; ok {
		return domain.ErrDuplicateConnection
	}
	r.conns[conn.ID] = conn

	userConns := r.byUser[conn.UserID]
	if userConns == nil {
		userConns = make(map[string]struct{})
		r.byUser[conn.UserID] = userConns
	}
	userConns[conn.ID] = struct{}{}
	return nil
}

// Unregister remove the mapping and return the conversations the connection
// had joined, so the caller can evict it from every room. Unregistering an
// unknown connection is a no-op, not an error.
func (r *ConnRegistry) Unregister(connID string) []string {
	r.mu.Lock()
	conn, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(r.conns, connID)
	if userConns, ok := r.byUser[conn.UserID]; ok {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(r.byUser, conn.UserID)
		}
	}
	r.mu.Unlock()

	return conn.Joined()
}

// ConnectionsForUser return the live connection IDs of a user
func (r *ConnRegistry) ConnectionsForUser(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.byUser[userID]))
	for id := range r.byUser[userID] {
		ids = append(ids, id)
	}
	return ids
}

// Get look up a connection by ID
func (r *ConnRegistry) Get(connID string) (*ClientConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connID]
	return conn, ok
}

// Count live connections
func (r *ConnRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Run sweep idle connections until ctx is cancelled. Closing an idle
// connection makes its read loop fail, which drives the normal
// unregister/evict path.
func (r *ConnRegistry) Run(ctx context.Context) {
	interval := r.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepIdle()
		}
	}
}

func (r *ConnRegistry) sweepIdle() {
	cutoff := time.Now().Add(-r.idleTimeout)

	r.mu.RLock()
	var idle []*ClientConn
	for _, conn := range r.conns {
		if conn.LastActive().Before(cutoff) {
			idle = append(idle, conn)
		}
	}
	r.mu.RUnlock()

	for _, conn := range idle {
		logger.Log.Info("closing idle connection",
			zap.String("connID", conn.ID), zap.String("userID", conn.UserID))
		conn.Close()
	}
}
