package events

// EventCollector holds the events raised by an immutable aggregate. It is a
// value: Record returns a new collector with its own backing array, so an
// aggregate copy never sees events recorded on another copy. The zero value
// is empty and ready to use.
type EventCollector struct {
	events []DomainEvent
}

// Record returns a collector holding the current events followed by evts.
func (c EventCollector) Record(evts ...DomainEvent) EventCollector {
	out := make([]DomainEvent, 0, len(c.events)+len(evts))
	out = append(out, c.events...)
	return EventCollector{events: append(out, evts...)}
}

// Events returns the collected events in recording order.
func (c EventCollector) Events() []DomainEvent {
	return c.events
}

// Len reports how many events were collected.
func (c EventCollector) Len() int { return len(c.events) }
