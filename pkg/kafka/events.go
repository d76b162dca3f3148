package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/barkshad/fuliza/pkg/events"
)

// MessageSender is the subset of Producer used by EventWriter.
type MessageSender interface {
	Publish(ctx context.Context, topic string, messages ...Message) error
}

// EventWriter publishes domain events as JSON envelopes keyed by aggregate id.
// It implements events.EventPublisher.
type EventWriter struct {
	sender MessageSender
}

// NewEventWriter creates an EventWriter on top of sender.
func NewEventWriter(sender MessageSender) *EventWriter {
	return &EventWriter{sender: sender}
}

// Publish writes evts to topic in one batch.
func (w *EventWriter) Publish(ctx context.Context, topic string, evts ...events.DomainEvent) error {
	messages := make([]Message, 0, len(evts))
	for _, evt := range evts {
		env, err := events.NewEnvelope(evt)
		if err != nil {
			return err
		}
		value, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("marshal envelope %s: %w", env.ID, err)
		}
		messages = append(messages, Message{
			Key:   []byte(env.AggregateID),
			Value: value,
			Headers: map[string]string{
				"event_type":     env.EventType,
				"event_id":       env.ID,
				"aggregate_type": env.AggregateType,
			},
		})
	}
	return w.sender.Publish(ctx, topic, messages...)
}

var _ events.EventPublisher = (*EventWriter)(nil)
