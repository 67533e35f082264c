package database

import (
	"context"
	"fmt"
	"time"

	"marketplace_chat_service/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriterWithRetry build a Kafka writer and confirm the connection with
// a probe message before handing it out
func NewKafkaWriterWithRetry(k KafkaConnection) (*kafka.Writer, error) {
	var writer *kafka.Writer
	var err error

	for attempt := 1; attempt <= k.RetryCount; attempt++ {
		writer = kafka.NewWriter(kafka.WriterConfig{
			Brokers:  k.Brokers,
			Topic:    k.Topic,
			Balancer: &kafka.LeastBytes{},
		})

		err = writer.WriteMessages(context.Background(), kafka.Message{
			Key:   []byte("ping"),
			Value: []byte("ping"),
		})
		if err == nil {
			logger.Log.Info(fmt.Sprintf("Kafka writer ready (attempt %d)", attempt))
			return writer, nil
		}

		logger.Log.Warn(fmt.Sprintf("Kafka writer setup failed (attempt %d/%d): %v", attempt, k.RetryCount, err))
		writer.Close()
		time.Sleep(k.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("unable to build Kafka writer after %d attempts: %v", k.RetryCount, err)
}
