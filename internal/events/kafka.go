// Package events publishes recorded activity to Kafka for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/isdelr/ender-catalog-be/internal/models"
	kafka "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends activity entries to a Kafka topic as JSON.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

// Publish sends one entry. Entries of the same actor share a key so they stay ordered
// within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, entry models.ActivityLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize activity entry: %w", err)
	}

	key := "anonymous"
	if entry.UserID != nil {
		key = *entry.UserID
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		return fmt.Errorf("failed to publish activity entry: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
