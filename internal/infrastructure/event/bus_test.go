package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler collects the events it receives.
type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	fail     bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.received = append(h.received, event)
	if h.fail {
		return assert.AnError
	}
	return nil
}

func (h *recordingHandler) EventTypes() []string { return h.types }

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panickingHandler) EventTypes() []string                             { return nil }

func newScannedEvent(t *testing.T) shared.DomainEvent {
	t.Helper()
	rec, err := tracking.NewRecord(uuid.New(), "SF100", "taobao", "", "alice")
	require.NoError(t, err)
	events := rec.GetDomainEvents()
	require.NotEmpty(t, events)
	return events[0]
}

func TestPublishDispatchesToSubscribedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	event := newScannedEvent(t)

	handler := &recordingHandler{types: []string{event.EventType()}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), event))
	require.Len(t, handler.received, 1)
	assert.Equal(t, event.EventType(), handler.received[0].EventType())
}

func TestPublishSkipsUnrelatedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := &recordingHandler{types: []string{"some.other.event"}}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newScannedEvent(t)))
	assert.Empty(t, handler.received)
}

func TestWildcardHandlerReceivesEverything(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := &recordingHandler{}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newScannedEvent(t), newScannedEvent(t)))
	assert.Len(t, handler.received, 2)
}

func TestFailingHandlerDoesNotBlockOthers(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	event := newScannedEvent(t)

	failing := &recordingHandler{types: []string{event.EventType()}, fail: true}
	healthy := &recordingHandler{types: []string{event.EventType()}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), event))
	assert.Len(t, failing.received, 1)
	assert.Len(t, healthy.received, 1)
}

func TestPanickingHandlerIsContained(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	bus.Subscribe(panickingHandler{})
	healthy := &recordingHandler{}
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newScannedEvent(t)))
	assert.Len(t, healthy.received, 1)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := &recordingHandler{}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newScannedEvent(t)))
	assert.Empty(t, handler.received)
}
