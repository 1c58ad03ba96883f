package transport

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/collab"
)

// LoopbackTransport implements collab.Transport in process. It backs
// single-node installs running on SQLite, where every operator session
// lives in the same process and Redis would be dead weight.
type LoopbackTransport struct {
	mu     sync.Mutex
	nextID int
	subs   map[uuid.UUID]map[int]func(collab.GridEvent)
	closed bool
}

// NewLoopbackTransport creates an in-process transport
func NewLoopbackTransport() *LoopbackTransport {
	return &LoopbackTransport{
		subs: make(map[uuid.UUID]map[int]func(collab.GridEvent)),
	}
}

// Publish delivers the event synchronously to every subscriber of the
// store's grid
func (t *LoopbackTransport) Publish(_ context.Context, event collab.GridEvent) error {
	t.mu.Lock()
	handlers := make([]func(collab.GridEvent), 0, len(t.subs[event.StoreID]))
	for _, handler := range t.subs[event.StoreID] {
		handlers = append(handlers, handler)
	}
	t.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
	return nil
}

// Subscribe registers the handler and blocks until ctx is cancelled
func (t *LoopbackTransport) Subscribe(ctx context.Context, storeID uuid.UUID, handler func(collab.GridEvent)) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return context.Canceled
	}
	id := t.nextID
	t.nextID++
	if t.subs[storeID] == nil {
		t.subs[storeID] = make(map[int]func(collab.GridEvent))
	}
	t.subs[storeID][id] = handler
	t.mu.Unlock()

	<-ctx.Done()

	t.mu.Lock()
	delete(t.subs[storeID], id)
	t.mu.Unlock()
	return ctx.Err()
}

// Close drops all subscriptions
func (t *LoopbackTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.subs = make(map[uuid.UUID]map[int]func(collab.GridEvent))
	return nil
}

// Ensure LoopbackTransport implements Transport
var _ collab.Transport = (*LoopbackTransport)(nil)
