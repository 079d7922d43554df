package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is an in-process domain notification. Events are ephemeral: they
// exist to decouple the stores from the views and channels that react to
// them, not to provide an audit trail.
type Event struct {
	ID         string
	Topic      string
	OccurredAt time.Time
	Payload    map[string]any
}

// Notifier reacts to emitted events (e.g. email, metrics, view refresh).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Bus fans events out to downstream handlers. A nil bus is safe to emit on.
type Bus struct {
	Notifiers []Notifier
	Now       func() time.Time
}

// Emit dispatches the event to all configured notifiers. Notifier errors are
// joined and returned but never prevent the remaining notifiers from running.
func (b *Bus) Emit(ctx context.Context, topic string, payload map[string]any) (Event, error) {
	if b == nil {
		return Event{}, nil
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}
	if payload == nil {
		payload = map[string]any{}
	}
	ev := Event{
		ID:         uuid.NewString(),
		Topic:      topic,
		OccurredAt: now,
		Payload:    payload,
	}
	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, ev); err != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", err))
		}
	}
	return ev, joined
}
