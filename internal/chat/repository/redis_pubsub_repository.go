package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// BroadcastEnvelope carries one fan-out event across the shared pub/sub
// backbone. Origin lets each node skip events it published itself.
type BroadcastEnvelope struct {
	Origin         string            `json:"origin"`
	ConversationID string            `json:"conversation_id"`
	Event          domain.WSResponse `json:"event"`
}

// RedisPubSub definition redis pub/sub backbone between delivery nodes
type RedisPubSub struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
		ctx:    context.Background(),
	}
}

// Publish serialize the envelope and publish it to the channel
func (r *RedisPubSub) Publish(channel string, env BroadcastEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.client.Publish(r.ctx, channel, data).Err()
}

// Subscribe listen on the channel and hand every envelope to handler until ctx
// is cancelled
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(env BroadcastEnvelope)) error {
	sub := r.client.Subscribe(r.ctx, channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var env BroadcastEnvelope
				if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
					logger.Log.Errorf("backbone envelope unmarshal error:", err)
					continue
				}
				handler(env)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				sub.Close()
				return
			}
		}
	}()
	return nil
}
