package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shiptrack/backend/internal/domain/collab"
	"github.com/shiptrack/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

// RedisTransport implements collab.Transport over Redis Pub/Sub. Each
// store's grid uses three channels, one per event stream, so a consumer
// interested only in presence does not pay for cell-edit traffic.
type RedisTransport struct {
	client     *redis.Client
	ownsClient bool
	logger     *zap.Logger
}

// NewRedisTransport creates a transport with its own Redis connection
func NewRedisTransport(cfg config.RedisConfig, logger *zap.Logger) (*RedisTransport, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	transport := NewRedisTransportWithClient(client, logger)
	transport.ownsClient = true
	return transport, nil
}

// NewRedisTransportWithClient creates a transport over an existing client.
// The caller retains ownership of the client and is responsible for
// closing it.
func NewRedisTransportWithClient(client *redis.Client, logger *zap.Logger) *RedisTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTransport{client: client, logger: logger}
}

// channelFor returns the Pub/Sub channel carrying an event kind for a store
func channelFor(storeID uuid.UUID, kind collab.EventKind) string {
	var stream string
	switch kind {
	case collab.KindCellEdit:
		stream = "broadcast"
	case collab.KindPresence:
		stream = "presence"
	default:
		stream = "changes"
	}
	return fmt.Sprintf("grid:%s:%s", storeID, stream)
}

// storeChannels returns all three channels for a store's grid
func storeChannels(storeID uuid.UUID) []string {
	return []string{
		channelFor(storeID, collab.KindCellEdit),
		channelFor(storeID, collab.KindPresence),
		channelFor(storeID, collab.KindRowUpdated),
	}
}

// Publish sends an event on the channel matching its kind
func (t *RedisTransport) Publish(ctx context.Context, event collab.GridEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal grid event: %w", err)
	}
	channel := channelFor(event.StoreID, event.Kind)
	if err := t.client.Publish(ctx, channel, data).Err(); err != nil {
		t.logger.Error("failed to publish grid event",
			zap.String("channel", channel),
			zap.String("kind", string(event.Kind)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish grid event: %w", err)
	}
	return nil
}

// Subscribe consumes all three of a store's channels until ctx is
// cancelled. Blocks the calling goroutine.
func (t *RedisTransport) Subscribe(ctx context.Context, storeID uuid.UUID, handler func(collab.GridEvent)) error {
	pubsub := t.client.Subscribe(ctx, storeChannels(storeID)...)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to grid channels: %w", err)
	}

	t.logger.Info("subscribed to grid channels",
		zap.String("store_id", storeID.String()),
	)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("grid subscription stopped",
				zap.String("store_id", storeID.String()),
			)
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				t.logger.Warn("grid channel closed",
					zap.String("store_id", storeID.String()),
				)
				return nil
			}
			var event collab.GridEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				t.logger.Error("failed to unmarshal grid event",
					zap.String("channel", msg.Channel),
					zap.Error(err),
				)
				continue
			}
			t.deliver(handler, event)
		}
	}
}

// deliver invokes the handler with panic containment so one bad event
// cannot kill the subscription loop
func (t *RedisTransport) deliver(handler func(collab.GridEvent), event collab.GridEvent) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("panic in grid event handler",
				zap.String("kind", string(event.Kind)),
				zap.Any("panic", r),
			)
		}
	}()
	handler(event)
}

// Close releases the Redis connection when this transport owns it
func (t *RedisTransport) Close() error {
	if t.ownsClient {
		return t.client.Close()
	}
	return nil
}

// Ensure RedisTransport implements Transport
var _ collab.Transport = (*RedisTransport)(nil)
