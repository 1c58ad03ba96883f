package collab

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/collab"
)

// Hub fans grid events out to the connected sessions of each store. A
// slow consumer's buffer filling up drops events for that consumer only;
// it re-syncs from the authoritative grid on its next full load.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[string]chan collab.GridEvent
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[string]chan collab.GridEvent)}
}

// Register attaches a session to a store's stream and returns its event
// channel.
func (h *Hub) Register(storeID uuid.UUID, sessionID string) <-chan collab.GridEvent {
	ch := make(chan collab.GridEvent, 64)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[storeID] == nil {
		h.subs[storeID] = make(map[string]chan collab.GridEvent)
	}
	h.subs[storeID][sessionID] = ch
	return ch
}

// Unregister detaches a session and closes its channel.
func (h *Hub) Unregister(storeID uuid.UUID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sessions, ok := h.subs[storeID]; ok {
		if ch, ok := sessions[sessionID]; ok {
			close(ch)
			delete(sessions, sessionID)
		}
		if len(sessions) == 0 {
			delete(h.subs, storeID)
		}
	}
}

// Broadcast delivers an event to every session of its store.
func (h *Hub) Broadcast(event collab.GridEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[event.StoreID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Sessions returns the number of sessions attached to a store.
func (h *Hub) Sessions(storeID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[storeID])
}
