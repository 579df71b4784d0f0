// Package events publishes storefront domain events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	UserRegistered = "user.registered"
	ReviewUpserted = "review.upserted"
	ReviewRemoved  = "review.removed"
	CartMerged     = "cart.merged"
	PasswordReset  = "password.reset"
)

// Event is a single domain fact. Key groups related events on one partition.
type Event struct {
	Type       string                 `json:"type"`
	Key        string                 `json:"key"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType, key string, data map[string]interface{}) Event {
	return Event{Type: eventType, Key: key, Data: data, OccurredAt: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Handlers publish one event at a time; a batch is flushed without waiting to fill.
const (
	batchTimeout = 5 * time.Millisecond
	writeTimeout = 2 * time.Second
)

// KafkaPublisher writes events as JSON to a single topic.
type KafkaPublisher struct {
	writer *kafkago.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		Async:        false,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}
	msg := kafkago.Message{
		Key:   []byte(e.Key),
		Value: b,
		Time:  e.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s: %w", e.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the types of the recorded events in order.
func (r *Recorder) Types() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type
	}
	return out
}
