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

// Fetcher is the part of *kgo.Client the consumer uses.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	Close()
}

// Handler reacts to a catalog event.
type Handler func(ctx context.Context, ev domain.CatalogEvent) error

// Consumer reads catalog events and calls the handler once per poll with
// the newest valid event, so a burst of updates triggers one reload.
type Consumer struct {
	client Fetcher
	topic  string
	handle Handler
	poller *AdaptivePoller
}

// NewConsumer joins groupID on topic.
func NewConsumer(ctx context.Context, brokers []string, groupID, topic string, h Handler) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("op=redpanda.NewConsumer: no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("op=redpanda.NewConsumer: missing required group ID")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		kgo.SessionTimeout(30*time.Second),
		kgo.HeartbeatInterval(3*time.Second),
		kgo.FetchMaxWait(5*time.Second),
		tracingHooks(),
	)
	if err != nil {
		return nil, fmt.Errorf("op=redpanda.NewConsumer: %w", err)
	}
	if err := EnsureTopic(ctx, client, topic, 1, 1); err != nil {
		slog.Warn("failed to ensure topic, consuming anyway", slog.String("topic", topic), slog.Any("error", err))
	}
	slog.Info("redpanda consumer ready", slog.String("group_id", groupID), slog.String("topic", topic))
	return NewConsumerWithClient(client, topic, h), nil
}

// NewConsumerWithClient wraps an existing client.
func NewConsumerWithClient(c Fetcher, topic string, h Handler) *Consumer {
	return &Consumer{
		client: c,
		topic:  topic,
		handle: h,
		poller: NewAdaptivePoller(500*time.Millisecond, 30*time.Second),
	}
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		failed := false
		fetches.EachError(func(topic string, partition int32, err error) {
			failed = true
			slog.Warn("catalog event fetch failed",
				slog.String("topic", topic),
				slog.Int("partition", int(partition)),
				slog.Any("error", err))
		})
		if failed {
			c.poller.RecordFailure()
			if !sleepCtx(ctx, c.poller.NextInterval()) {
				return nil
			}
			continue
		}
		c.poller.RecordSuccess()
		c.process(ctx, fetches.Records())
	}
}

// process decodes records and runs the handler for the newest valid event.
// It reports whether the handler ran.
func (c *Consumer) process(ctx context.Context, records []*kgo.Record) bool {
	var latest *domain.CatalogEvent
	for _, r := range records {
		var ev domain.CatalogEvent
		if err := json.Unmarshal(r.Value, &ev); err != nil || ev.Type == "" {
			observability.RecordCatalogEvent("consumed", "malformed")
			slog.Warn("dropping malformed catalog event",
				slog.String("topic", r.Topic),
				slog.Int64("offset", r.Offset),
				slog.Any("error", err))
			continue
		}
		if ev.Type != domain.CatalogEventTypeUpdated {
			observability.RecordCatalogEvent("consumed", "ignored")
			continue
		}
		e := ev
		latest = &e
	}
	if latest == nil {
		return false
	}
	if err := c.handle(ctx, *latest); err != nil {
		observability.RecordCatalogEvent("consumed", "error")
		slog.Error("catalog event handler failed", slog.String("source", latest.Source), slog.Any("error", err))
		return true
	}
	observability.RecordCatalogEvent("consumed", "ok")
	return true
}

// Close closes the underlying client.
func (c *Consumer) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
