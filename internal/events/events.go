// Package events defines the envelope published to the message bus after a
// successful write.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
)

// Event is the message envelope written to Kafka and archived by the
// projector.
type Event struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Data        json.RawMessage `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
}

// New wraps a payload in an envelope.
func New(eventType, aggregateID string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		Data:        data,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// Decode parses an envelope from a message value.
func Decode(value []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(value, &e)
	return e, err
}

// Publisher sends an event keyed for partitioning.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, key string, event any) error {
	if e, ok := event.(Event); ok {
		log.Printf("[Events] %s key=%s id=%s (no broker configured)", e.Type, key, e.ID)
	}
	return nil
}
