package kafka

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

type MessageHandler func(ctx context.Context, key, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads a topic as part of a consumer group. Offsets are committed
// only after the handler returns, so delivery is at least once.
type Consumer struct {
	reader  messageReader
	retries int
	backoff time.Duration
	types   map[string]bool
}

// NewConsumer creates a group consumer. When eventTypes is non-empty,
// messages whose event-type header names another type are committed
// without calling the handler.
func NewConsumer(brokers []string, topic, groupID string, eventTypes ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return newConsumer(reader, eventTypes)
}

func newConsumer(reader messageReader, eventTypes []string) *Consumer {
	c := &Consumer{reader: reader, retries: 3, backoff: 500 * time.Millisecond}
	if len(eventTypes) > 0 {
		c.types = make(map[string]bool, len(eventTypes))
		for _, t := range eventTypes {
			c.types[t] = true
		}
	}
	return c
}

// Consume blocks until ctx is done. A message whose handler keeps failing is
// logged and committed so one bad message cannot stall the partition.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Kafka] Error reading message: %v", err)
			continue
		}

		if c.wants(msg) {
			c.handle(ctx, handler, msg)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Kafka] Failed to commit offset %d on partition %d: %v", msg.Offset, msg.Partition, err)
		}
	}
}

func (c *Consumer) wants(msg kafka.Message) bool {
	if c.types == nil {
		return true
	}
	for _, h := range msg.Headers {
		if h.Key == HeaderEventType {
			return c.types[string(h.Value)]
		}
	}
	return true
}

func (c *Consumer) handle(ctx context.Context, handler MessageHandler, msg kafka.Message) {
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return
		}
		if attempt >= c.retries || ctx.Err() != nil {
			log.Printf("[Kafka] Giving up on message offset %d after %d attempts: %v", msg.Offset, attempt, err)
			return
		}
		log.Printf("[Kafka] Error handling message offset %d (attempt %d): %v", msg.Offset, attempt, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff):
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
