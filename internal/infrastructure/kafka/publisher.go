package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/barkshad/fuliza/internal/domain/event"
	"github.com/barkshad/fuliza/pkg/events"
)

// EventPublisher implements port.EventPublisher. Each aggregate type gets its
// own topic, <prefix>.<aggregate>, so ordering holds per aggregate id.
type EventPublisher struct {
	writer events.EventPublisher
	prefix string
	logger *slog.Logger
}

// NewEventPublisher creates a publisher writing through writer.
func NewEventPublisher(writer events.EventPublisher, prefix string, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{writer: writer, prefix: prefix, logger: logger}
}

// Topic returns the topic events of aggregateType are written to.
func (p *EventPublisher) Topic(aggregateType string) string {
	return p.prefix + "." + strings.ToLower(aggregateType)
}

// Publish groups events by topic and writes each group in order.
func (p *EventPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	var topics []string
	byTopic := make(map[string][]events.DomainEvent)
	for _, evt := range evts {
		topic := p.Topic(evt.AggregateType())
		if _, ok := byTopic[topic]; !ok {
			topics = append(topics, topic)
		}
		byTopic[topic] = append(byTopic[topic], evt)

		p.logger.DebugContext(ctx, "publishing domain event",
			"event_type", evt.EventType(),
			"aggregate_id", evt.AggregateID(),
			"topic", topic,
		)
	}

	for _, topic := range topics {
		if err := p.writer.Publish(ctx, topic, byTopic[topic]...); err != nil {
			return fmt.Errorf("publish events to topic %s: %w", topic, err)
		}
	}
	return nil
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct {
	Logger *slog.Logger
}

// Publish logs and discards evts.
func (p NopPublisher) Publish(ctx context.Context, evts ...event.DomainEvent) error {
	for _, evt := range evts {
		p.Logger.DebugContext(ctx, "domain event dropped", "event_type", evt.EventType(), "aggregate_id", evt.AggregateID())
	}
	return nil
}
