package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mall-backoffice/internal/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func typed(offset int64, eventType string) kafka.Message {
	return kafka.Message{
		Offset:  offset,
		Key:     []byte("order-1"),
		Value:   []byte(`{}`),
		Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte(eventType)}},
	}
}

// ============================================
// Producer
// ============================================

func TestProducer_PublishEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}
	e, err := events.New("order.placed", "order-1", map[string]int{"total": 2000})
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "order-1", e))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, []kafka.Header{{Key: HeaderEventType, Value: []byte("order.placed")}}, msg.Headers)

	var decoded events.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, e.ID, decoded.ID)
}

func TestProducer_PublishPlainValue(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	require.NoError(t, p.Publish(context.Background(), "k", map[string]string{"a": "b"}))

	require.Len(t, w.msgs, 1)
	assert.Empty(t, w.msgs[0].Headers)
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}}

	assert.Error(t, p.Publish(context.Background(), "k", struct{}{}))
}

// ============================================
// Consumer
// ============================================

func runUntilCommitted(t *testing.T, c *Consumer, r *fakeReader, n int, handler MessageHandler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Consume(ctx, handler) }()

	require.Eventually(t, func() bool { return len(r.commits()) >= n }, waitFor, tick)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestConsumer_CommitsAfterHandling(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{typed(1, "order.placed"), typed(2, "order.paid")}}
	c := newConsumer(r, nil)
	var mu sync.Mutex
	var seen []string

	runUntilCommitted(t, c, r, 2, func(_ context.Context, key, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, string(key))
		return nil
	})

	assert.Equal(t, []int64{1, 2}, r.commits())
	assert.Len(t, seen, 2)
}

func TestConsumer_FiltersByEventType(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{typed(1, "order.paid"), typed(2, "order.placed"), {Offset: 3, Value: []byte(`{}`)}}}
	c := newConsumer(r, []string{"order.placed"})
	var mu sync.Mutex
	handled := 0

	runUntilCommitted(t, c, r, 3, func(context.Context, []byte, []byte) error {
		mu.Lock()
		defer mu.Unlock()
		handled++
		return nil
	})

	// the message without a header is delivered
	assert.Equal(t, 2, handled)
	assert.Equal(t, []int64{1, 2, 3}, r.commits())
}

func TestConsumer_RetriesThenSkips(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{typed(7, "order.placed")}}
	c := newConsumer(r, nil)
	c.backoff = 0
	var mu sync.Mutex
	attempts := 0

	runUntilCommitted(t, c, r, 1, func(context.Context, []byte, []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return errors.New("smtp down")
	})

	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int64{7}, r.commits())
}

const (
	waitFor = 2 * time.Second
	tick   = 5 * time.Millisecond
)
