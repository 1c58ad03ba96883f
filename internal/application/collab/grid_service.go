package collab

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/collab"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/staging"
	"github.com/shiptrack/backend/internal/domain/tracking"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EditCellCommand is one field edit from an operator session.
type EditCellCommand struct {
	RowID  uuid.UUID
	Field  string
	Value  string
	UserID string
}

// InsertRowCommand creates a row directly from the grid.
type InsertRowCommand struct {
	TrackingNumber string
	OrderID        string
	Customer       string
	Channel        string
	SubStore       string
}

// GridService is the server side of the collaborative grid: it accepts
// edits, debounces them into storage writes, relays the broadcast and
// presence channels, and fans every event out to attached sessions.
type GridService struct {
	lines     staging.LineRepository
	transport collab.Transport
	debounce  *Debouncer
	hub       *Hub
	logger    *zap.Logger

	mu      sync.Mutex
	rosters map[uuid.UUID]*Roster
	ttl     time.Duration
}

// NewGridService creates a grid service. writeInterval is the edit
// debounce window, presenceTTL the roster liveness window.
func NewGridService(lines staging.LineRepository, transport collab.Transport, writeInterval, presenceTTL time.Duration, logger *zap.Logger) *GridService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridService{
		lines:     lines,
		transport: transport,
		debounce:  NewDebouncer(lines, writeInterval, logger),
		hub:       NewHub(),
		logger:    logger,
		rosters:   make(map[uuid.UUID]*Roster),
		ttl:       presenceTTL,
	}
}

// Run pumps the store's transport stream into the hub until ctx is
// cancelled. Presence events also refresh the roster.
func (s *GridService) Run(ctx context.Context, storeID uuid.UUID) error {
	return s.transport.Subscribe(ctx, storeID, func(event collab.GridEvent) {
		if event.Kind == collab.KindPresence && event.Presence != nil {
			s.roster(storeID).Upsert(*event.Presence)
		}
		s.hub.Broadcast(event)
	})
}

// Attach registers a session for the store's event stream.
func (s *GridService) Attach(storeID uuid.UUID, sessionID string) <-chan collab.GridEvent {
	return s.hub.Register(storeID, sessionID)
}

// Detach unregisters a session and drops it from the roster.
func (s *GridService) Detach(storeID uuid.UUID, sessionID string) {
	s.hub.Unregister(storeID, sessionID)
	s.roster(storeID).Remove(sessionID)
}

// EditCell validates and queues one field edit, then broadcasts it so
// other sessions see the keystroke before the debounced write lands.
func (s *GridService) EditCell(ctx context.Context, storeID uuid.UUID, cmd EditCellCommand) error {
	value, err := convertField(cmd.Field, cmd.Value)
	if err != nil {
		return err
	}
	s.debounce.Schedule(cmd.RowID, map[string]interface{}{cmd.Field: value})

	event := collab.NewCellEditEvent(storeID, collab.CellEdit{
		RowID:        cmd.RowID,
		Field:        cmd.Field,
		Value:        cmd.Value,
		OriginUserID: cmd.UserID,
		Timestamp:    time.Now(),
	})
	if err := s.transport.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to broadcast cell edit",
			zap.String("row_id", cmd.RowID.String()),
			zap.Error(err))
	}
	return nil
}

// InsertRow creates a staged line from the grid and announces it on the
// persisted-change channel. Sessions holding a transient copy re-key it
// by natural key.
func (s *GridService) InsertRow(ctx context.Context, storeID uuid.UUID, cmd InsertRowCommand) (*collab.RowSnapshot, error) {
	line, err := staging.NewLine(storeID, cmd.TrackingNumber, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	line.Customer = cmd.Customer
	line.Channel = cmd.Channel
	line.SubStore = cmd.SubStore
	if err := s.lines.Insert(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to insert grid row: %w", err)
	}

	snapshot := collab.SnapshotOf(line)
	s.publishChange(ctx, collab.NewRowChangeEvent(collab.KindRowInserted, storeID, collab.RowChange{
		RowID:      line.ID,
		NaturalKey: line.Key(),
		NewRow:     snapshot,
	}))
	return snapshot, nil
}

// DeleteRow removes a staged line. A row already gone means another
// operator deleted it first; that is surfaced as a stale reference.
func (s *GridService) DeleteRow(ctx context.Context, storeID uuid.UUID, rowID uuid.UUID) error {
	s.debounce.Drop(rowID)
	line, err := s.lines.FindByID(ctx, rowID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrStaleReference
		}
		return err
	}
	if err := s.lines.Delete(ctx, rowID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrStaleReference
		}
		return err
	}
	s.publishChange(ctx, collab.NewRowChangeEvent(collab.KindRowDeleted, storeID, collab.RowChange{
		RowID:      rowID,
		NaturalKey: line.Key(),
	}))
	return nil
}

// Flush forces every queued grid write to storage, called before a
// commit run so readiness is derived from current values.
func (s *GridService) Flush(ctx context.Context) error {
	return s.debounce.Flush(ctx)
}

// Announce publishes a presence heartbeat for a session.
func (s *GridService) Announce(ctx context.Context, storeID uuid.UUID, entry collab.PresenceEntry) error {
	entry.LastSeenAt = time.Now()
	s.roster(storeID).Upsert(entry)
	return s.transport.Publish(ctx, collab.NewPresenceEvent(storeID, entry))
}

// Presence returns the live roster of a store's grid.
func (s *GridService) Presence(storeID uuid.UUID) []collab.PresenceEntry {
	return s.roster(storeID).Active(time.Now())
}

func (s *GridService) roster(storeID uuid.UUID) *Roster {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rosters[storeID]
	if !ok {
		r = NewRoster(s.ttl)
		s.rosters[storeID] = r
	}
	return r
}

func (s *GridService) publishChange(ctx context.Context, event collab.GridEvent) {
	if err := s.transport.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish row change",
			zap.String("kind", string(event.Kind)),
			zap.Error(err))
	}
}

// convertField maps a wire field edit to its storage column value.
func convertField(field, value string) (interface{}, error) {
	switch field {
	case FieldCustomer, FieldChannel, FieldSubStore, FieldPartIdentifier,
		FieldSourceLabelName, FieldOrderID, FieldCurrency:
		return value, nil
	case FieldTrackingNumber:
		return tracking.NormalizeTrackingNumber(value), nil
	case FieldQuantityRequested, FieldUnitPrice, FieldTotalPrice:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_VALUE",
				fmt.Sprintf("%s must be a number", field))
		}
		if d.IsNegative() {
			return nil, shared.NewDomainError("INVALID_VALUE",
				fmt.Sprintf("%s cannot be negative", field))
		}
		return d, nil
	case FieldOverrideDuplicate:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_VALUE",
				"override_duplicate must be true or false")
		}
		return b, nil
	default:
		return nil, shared.NewDomainError("INVALID_FIELD",
			fmt.Sprintf("Unknown grid field %q", field))
	}
}
