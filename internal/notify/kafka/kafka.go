// Package kafka implements the notification sink on a Kafka topic via
// franz-go. Events are JSON records keyed by kind so consumers can
// partition-compact per event type.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"fedreg/internal/notify"
)

// Sink produces notification events to one topic.
type Sink struct {
	client *kgo.Client
}

// New connects a producer to the given seed brokers and topic.
func New(ctx context.Context, brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping: %w", err)
	}
	return &Sink{client: client}, nil
}

// Emit produces one event synchronously. The broadcaster already runs
// detached and paced, so a blocking produce here keeps ordering simple.
func (s *Sink) Emit(ctx context.Context, event notify.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.Kind),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (s *Sink) Close() {
	s.client.Close()
}
