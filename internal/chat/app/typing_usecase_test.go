package app

import (
	"context"
	"testing"
	"time"

	"marketplace_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
)

func typingFixture(t *testing.T, ttl time.Duration) (*TypingCoordinator, *ClientConn) {
	t.Helper()
	store := newMemoryStore()
	store.addConversation("conv-1", "user-a", "user-b")
	hub := NewHub(store, nil)

	conn := newTestConn("conn-b", "user-b")
	_, err := hub.Join(context.Background(), "conv-1", conn)
	assert.NoError(t, err)

	return NewTypingCoordinator(hub, ttl), conn
}

func TestTyping_StartStop(t *testing.T) {
	tc, conn := typingFixture(t, time.Minute)

	tc.SetTyping("conv-1", "user-a", true)
	event := nextEvent(t, conn)
	assert.Equal(t, string(domain.EventTypingStart), event.Action)
	assert.Equal(t, "user-a", event.Payload["user_id"])

	tc.SetTyping("conv-1", "user-a", false)
	event = nextEvent(t, conn)
	assert.Equal(t, string(domain.EventTypingStop), event.Action)
	assertNoEvent(t, conn)
}

func TestTyping_StopWithoutStartIsSilent(t *testing.T) {
	tc, conn := typingFixture(t, time.Minute)

	tc.SetTyping("conv-1", "user-a", false)
	assertNoEvent(t, conn)
}

func TestTyping_SweepEmitsExactlyOneStop(t *testing.T) {
	tc, conn := typingFixture(t, 20*time.Millisecond)

	tc.SetTyping("conv-1", "user-a", true)
	nextEvent(t, conn)

	time.Sleep(40 * time.Millisecond)
	tc.sweep(time.Now())
	// entry already removed, the next sweep finds nothing
	tc.sweep(time.Now())

	event := nextEvent(t, conn)
	assert.Equal(t, string(domain.EventTypingStop), event.Action)
	assertNoEvent(t, conn)
}

func TestTyping_RefreshExtendsDeadline(t *testing.T) {
	tc, conn := typingFixture(t, 50*time.Millisecond)

	tc.SetTyping("conv-1", "user-a", true)
	nextEvent(t, conn)

	time.Sleep(30 * time.Millisecond)
	tc.SetTyping("conv-1", "user-a", true)
	nextEvent(t, conn)

	// the original deadline has passed but the refresh keeps the entry alive
	time.Sleep(30 * time.Millisecond)
	tc.sweep(time.Now())
	assertNoEvent(t, conn)
}

func TestTyping_ExplicitStopBeatsSweep(t *testing.T) {
	tc, conn := typingFixture(t, 20*time.Millisecond)

	tc.SetTyping("conv-1", "user-a", true)
	nextEvent(t, conn)
	tc.SetTyping("conv-1", "user-a", false)
	nextEvent(t, conn)

	time.Sleep(40 * time.Millisecond)
	tc.sweep(time.Now())
	assertNoEvent(t, conn)
}
