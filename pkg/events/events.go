// Package events defines the domain events published when dealerships and users change.
package events

import (
	"time"

	"github.com/carsna/carsna/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every domain event.
const Topic = "carsna.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	DealershipCreatedEvent       EventType = "dealership.created"
	DealershipStatusChangedEvent EventType = "dealership.status_changed"
	UserCreatedEvent             EventType = "user.created"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// DealershipCreated is published once an onboarding application is stored.
type DealershipCreated struct {
	BaseEvent

	Dealership models.Dealership `json:"dealership"`
}

func (d DealershipCreated) GetType() EventType {
	return DealershipCreatedEvent
}

// DealershipStatusChanged is published after an admin review decision.
type DealershipStatusChanged struct {
	BaseEvent

	Dealership     models.Dealership       `json:"dealership"`
	PreviousStatus models.DealershipStatus `json:"previous_status"`
	Reason         string                  `json:"reason,omitempty"`
}

func (d DealershipStatusChanged) GetType() EventType {
	return DealershipStatusChangedEvent
}

// UserCreated is published for every new account. The password hash never leaves the service.
type UserCreated struct {
	BaseEvent

	User             models.User `json:"user"`
	DealershipName   string      `json:"dealership_name,omitempty"`
	SendWelcomeEmail bool        `json:"send_welcome_email"`
}

func (u UserCreated) GetType() EventType {
	return UserCreatedEvent
}

func (b BaseEvent) GetID() string {
	return b.ID
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
	}
}

// New returns an empty event value for eventType, ready to be unmarshalled into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case DealershipCreatedEvent:
		return &DealershipCreated{}, true
	case DealershipStatusChangedEvent:
		return &DealershipStatusChanged{}, true
	case UserCreatedEvent:
		return &UserCreated{}, true
	default:
		return nil, false
	}
}
