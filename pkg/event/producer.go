package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Topics published by the marketplace
const (
	TopicUserEvents  = "user_events"
	TopicOrderEvents = "order_events"
)

var (
	mu      sync.Mutex
	writers map[string]*kafka.Writer
	brokers []string
)

// Initialize configures the event stream. An empty broker list disables
// publishing: Publish becomes a no-op so the API keeps working without Kafka.
func Initialize(brokerList []string) {
	mu.Lock()
	defer mu.Unlock()
	brokers = brokerList
	writers = make(map[string]*kafka.Writer)
}

func writerFor(topic string) *kafka.Writer {
	mu.Lock()
	defer mu.Unlock()
	if len(brokers) == 0 {
		return nil
	}
	if w, ok := writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	if writers == nil {
		writers = make(map[string]*kafka.Writer)
	}
	writers[topic] = w
	return w
}

// Publish sends a JSON-encoded event to the given topic keyed by key.
// Callers treat failures as log-and-continue: a lost event never fails
// the request that produced it.
func Publish(ctx context.Context, topic, key string, payload interface{}) error {
	w := writerFor(topic)
	if w == nil {
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("event: marshal failed: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("event: publish to %s failed: %w", topic, err)
	}
	return nil
}

// Close flushes and closes all topic writers
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	var firstErr error
	for topic, w := range writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("event: close writer for %s: %w", topic, err)
		}
	}
	writers = make(map[string]*kafka.Writer)
	return firstErr
}
