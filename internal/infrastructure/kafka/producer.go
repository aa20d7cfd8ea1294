// Package kafka carries order events over Kafka with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/mall-backoffice/internal/events"
)

// HeaderEventType names the event type of a message so consumers can skip
// events without decoding them.
const HeaderEventType = "event-type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes events to one topic. Messages with the same key land on
// the same partition, so events of one order stay ordered.
type Producer struct {
	writer messageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{writer: writer}
}

// Publish implements events.Publisher.
func (p *Producer) Publish(ctx context.Context, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if e, ok := event.(events.Event); ok {
		msg.Headers = []kafka.Header{{Key: HeaderEventType, Value: []byte(e.Type)}}
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("[Kafka] Failed to publish message key=%s: %v", key, err)
		return err
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
