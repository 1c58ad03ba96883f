package collab

import (
	"context"

	"github.com/google/uuid"
)

// Transport moves grid events between operator sessions. The broadcast,
// presence and persisted-change channels are independent publish/subscribe
// streams; implementations route by event kind. Delivery order across
// channels is not guaranteed; receivers converge once the authoritative
// persisted-change event arrives.
type Transport interface {
	// Publish sends an event to every subscriber of the store's grid.
	Publish(ctx context.Context, event GridEvent) error
	// Subscribe delivers events for a store until ctx is cancelled.
	// Handlers must not block; this method blocks the calling
	// goroutine, matching the redis pub/sub consumption model.
	Subscribe(ctx context.Context, storeID uuid.UUID, handler func(GridEvent)) error
	// Close releases transport resources.
	Close() error
}
