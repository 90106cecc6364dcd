package mocks

import (
	"context"

	"github.com/carsna/carsna/pkg/eventbus"
	"github.com/carsna/carsna/pkg/events"
	"github.com/stretchr/testify/mock"
)

// MockEventBus records published domain events for service tests.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	args := m.Called(eventType, handler)

	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}

// Published returns the events passed to Publish, in call order.
func (m *MockEventBus) Published() []eventbus.Event {
	published := make([]eventbus.Event, 0, len(m.Calls))

	for _, call := range m.Calls {
		if call.Method == "Publish" {
			published = append(published, call.Arguments.Get(2).(eventbus.Event))
		}
	}

	return published
}

// ExpectPublish accepts any Publish call for eventType and returns err.
func (m *MockEventBus) ExpectPublish(eventType events.EventType, err error) *mock.Call {
	return m.On("Publish", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == eventType
	})).Return(err)
}
