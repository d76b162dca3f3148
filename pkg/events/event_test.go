package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type limitProjected struct {
	BaseEvent
	ProjectedLimit string `json:"projected_limit"`
}

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()
	event := NewBaseEvent("boost.limit.projected", "session-1", "LimitProjection")
	after := time.Now().UTC()

	assert.NotEmpty(t, event.EventID())
	assert.Equal(t, "boost.limit.projected", event.EventType())
	assert.Equal(t, "session-1", event.AggregateID())
	assert.Equal(t, "LimitProjection", event.AggregateType())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEventImplementsDomainEvent(t *testing.T) {
	var _ DomainEvent = BaseEvent{}
	var _ DomainEvent = limitProjected{}
}

func TestNewEnvelope(t *testing.T) {
	event := limitProjected{
		BaseEvent:      NewBaseEvent("boost.limit.projected", "session-2", "LimitProjection"),
		ProjectedLimit: "2000",
	}

	env, err := NewEnvelope(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), env.ID)
	assert.Equal(t, "session-2", env.AggregateID)
	assert.Equal(t, "boost.limit.projected", env.EventType)
	assert.Equal(t, event.OccurredAt(), env.CreatedAt)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &decoded))
	assert.Equal(t, "2000", decoded["projected_limit"])
	assert.Equal(t, "session-2", decoded["aggregate_id"])
}

func TestEventCollector(t *testing.T) {
	var empty EventCollector
	assert.Empty(t, empty.Events())

	one := empty.Record(NewBaseEvent("a", "1", "X"))
	two := one.Record(NewBaseEvent("b", "1", "X"))
	other := one.Record(NewBaseEvent("c", "1", "X"))

	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, 1, one.Len())
	require.Len(t, two.Events(), 2)
	require.Len(t, other.Events(), 2)
	assert.Equal(t, "b", two.Events()[1].EventType())
	assert.Equal(t, "c", other.Events()[1].EventType())
}
