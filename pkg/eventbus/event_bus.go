// Package eventbus carries domain events from the services to their consumers.
package eventbus

import (
	"context"

	"github.com/carsna/carsna/pkg/events"
)

// Event is a domain event. Its ID becomes the message ID so consumers can recognise a
// redelivery.
type Event interface {
	GetID() string
	GetType() events.EventType
}

// EventPublisher publishes an event under the ID of the record it concerns. Brokers
// that partition by key deliver the events of one record in publish order.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the concrete event type, e.g. *events.UserCreated.
// Returning an error nacks the message.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
