package repository

import (
	"context"
	"encoding/json"

	"marketplace_chat_service/internal/chat/domain"

	"github.com/segmentio/kafka-go"
)

// EventPublisher emits durable notification events for collaborators outside
// the live fan-out path (push/email notification delivery).
type EventPublisher interface {
	PublishMessageCreated(ctx context.Context, msg domain.Message) error
}

// MessageCreatedEvent payload of the message.created notification topic
type MessageCreatedEvent struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	CreatedAt      int64  `json:"created_at"`
}

type kafkaEventPublisher struct {
	writer *kafka.Writer
}

// NewKafkaEventPublisher create an EventPublisher on a Kafka writer
func NewKafkaEventPublisher(writer *kafka.Writer) EventPublisher {
	return &kafkaEventPublisher{writer: writer}
}

func (p *kafkaEventPublisher) PublishMessageCreated(ctx context.Context, msg domain.Message) error {
	event := MessageCreatedEvent{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		CreatedAt:      msg.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ConversationID),
		Value: data,
	})
}
