package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/airhive/airline-backend/internal/config"
)

// NotificationEvent mirrors an in-app notification onto the event
// stream so downstream channels (email, push) can deliver it too.
type NotificationEvent struct {
	Type      string    `json:"type"`
	UserID    int64     `json:"user_id"`
	FlightID  *int64    `json:"flight_id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Producer publishes notification events. A nil *Producer is valid and
// drops events, so callers never have to check whether Kafka is
// configured.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a producer. Returns nil when no brokers are
// configured.
func NewProducer(cfg config.KafkaConfig) *Producer {
	if len(cfg.Brokers) == 0 {
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer: writer,
		topic:  cfg.Topic,
	}
}

// Publish sends one notification event keyed by user ID
func (p *Producer) Publish(ctx context.Context, event NotificationEvent) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(fmt.Sprintf("user-%d", event.UserID)),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write notification event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
