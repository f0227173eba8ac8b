package events

import (
	"context"

	"parkly/pkg/kafka"
)

// Event is any record the sink can carry.
type Event interface {
	EventType() string
}

// Sink receives lifecycle events. Publishing is fire-and-forget relative to
// the state transition that produced the event: callers log failures but do
// not roll back.
type Sink interface {
	Publish(ctx context.Context, key string, event Event) error
}

// NoopSink discards every event.
type NoopSink struct{}

func (NoopSink) Publish(ctx context.Context, key string, event Event) error {
	return nil
}

// KafkaSink publishes events to the shared topic, keyed by facility id so a
// facility's events stay ordered within one partition.
type KafkaSink struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaSink(producer *kafka.Producer, source string) *KafkaSink {
	return &KafkaSink{
		producer: producer,
		source:   source,
	}
}

func (s *KafkaSink) Publish(ctx context.Context, key string, event Event) error {
	msg := kafka.NewMessage().
		WithKey(key).
		WithValue(event).
		WithEventType(event.EventType()).
		WithSchemaVersion(SchemaVersion).
		WithSource(s.source).
		Build()

	return s.producer.Publish(ctx, msg)
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
