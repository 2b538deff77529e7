// Package redpanda publishes and consumes catalog change events over
// Redpanda/Kafka.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/fairyhunter13/internship-recommender/internal/adapter/observability"
	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

// DefaultTopic carries catalog change events.
const DefaultTopic = "catalog-events"

// RecordProducer is the part of *kgo.Client the producer uses.
type RecordProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Producer publishes catalog events.
type Producer struct {
	client RecordProducer
	topic  string
}

// NewProducer connects to brokers and makes sure topic exists.
func NewProducer(ctx context.Context, brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=redpanda.NewProducer: no seed brokers provided")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
		tracingHooks(),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.NewProducer: %w", err)
	}
	if err := EnsureTopic(ctx, client, topic, 1, 1); err != nil {
		slog.Warn("failed to ensure topic, producing anyway", slog.String("topic", topic), slog.Any("error", err))
	}
	slog.Info("redpanda producer ready", slog.Any("brokers", brokers), slog.String("topic", topic))
	return &Producer{client: client, topic: topic}, nil
}

// NewProducerWithClient wraps an existing client.
func NewProducerWithClient(c RecordProducer, topic string) *Producer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Producer{client: c, topic: topic}
}

// PublishCatalogUpdated announces that the stored catalog changed. Type and
// At are filled in when empty.
func (p *Producer) PublishCatalogUpdated(ctx context.Context, ev domain.CatalogEvent) error {
	if ev.Type == "" {
		ev.Type = domain.CatalogEventTypeUpdated
	}
	if ev.At == 0 {
		ev.At = time.Now().UTC().Unix()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		observability.RecordCatalogEvent("produced", "error")
		return fmt.Errorf("op=redpanda.Publish: marshal: %w", err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.Source),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		observability.RecordCatalogEvent("produced", "error")
		return fmt.Errorf("op=redpanda.Publish: produce: %w", err)
	}
	observability.RecordCatalogEvent("produced", "ok")
	slog.Info("catalog event published",
		slog.String("topic", p.topic),
		slog.String("type", ev.Type),
		slog.String("source", ev.Source),
		slog.Int("postings", ev.Postings))
	return nil
}

// Close closes the underlying client.
func (p *Producer) Close() {
	if p.client != nil {
		p.client.Close()
	}
}
