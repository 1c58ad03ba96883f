package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/collab"
	"github.com/shiptrack/backend/internal/domain/staging"
	"go.uber.org/zap"
)

// NotifyingLineRepository decorates a LineRepository with persisted-change
// notifications. Every successful write is announced on the grid transport
// so other operators' grids converge on the stored state. Publish failures
// are logged and swallowed; storage remains the source of truth and a lost
// notification heals on the next grid reload.
type NotifyingLineRepository struct {
	inner     staging.LineRepository
	transport collab.Transport
	logger    *zap.Logger
}

// NewNotifyingLineRepository wraps a line repository with change notifications
func NewNotifyingLineRepository(inner staging.LineRepository, transport collab.Transport, logger *zap.Logger) *NotifyingLineRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotifyingLineRepository{inner: inner, transport: transport, logger: logger}
}

// FindByID delegates to the wrapped repository
func (r *NotifyingLineRepository) FindByID(ctx context.Context, id uuid.UUID) (*staging.Line, error) {
	return r.inner.FindByID(ctx, id)
}

// FindAllForStore delegates to the wrapped repository
func (r *NotifyingLineRepository) FindAllForStore(ctx context.Context, storeID uuid.UUID) ([]staging.Line, error) {
	return r.inner.FindAllForStore(ctx, storeID)
}

// Insert creates a line and announces the new row
func (r *NotifyingLineRepository) Insert(ctx context.Context, line *staging.Line) error {
	if err := r.inner.Insert(ctx, line); err != nil {
		return err
	}
	r.publish(ctx, collab.NewRowChangeEvent(collab.KindRowInserted, line.StoreID, collab.RowChange{
		RowID:      line.ID,
		NaturalKey: line.Key(),
		NewRow:     collab.SnapshotOf(line),
	}))
	return nil
}

// Update saves a line and announces the stored state
func (r *NotifyingLineRepository) Update(ctx context.Context, line *staging.Line) error {
	if err := r.inner.Update(ctx, line); err != nil {
		return err
	}
	r.publish(ctx, collab.NewRowChangeEvent(collab.KindRowUpdated, line.StoreID, collab.RowChange{
		RowID:      line.ID,
		NaturalKey: line.Key(),
		NewRow:     collab.SnapshotOf(line),
	}))
	return nil
}

// UpdateFields patches a row, then announces the full stored row so
// receivers do not need to reassemble partial patches
func (r *NotifyingLineRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if err := r.inner.UpdateFields(ctx, id, fields); err != nil {
		return err
	}
	line, err := r.inner.FindByID(ctx, id)
	if err != nil {
		r.logger.Warn("patched row vanished before notification",
			zap.String("row_id", id.String()),
			zap.Error(err),
		)
		return nil
	}
	r.publish(ctx, collab.NewRowChangeEvent(collab.KindRowUpdated, line.StoreID, collab.RowChange{
		RowID:      line.ID,
		NaturalKey: line.Key(),
		NewRow:     collab.SnapshotOf(line),
	}))
	return nil
}

// Delete removes a line and announces the removal
func (r *NotifyingLineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	line, err := r.inner.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	r.publish(ctx, collab.NewRowChangeEvent(collab.KindRowDeleted, line.StoreID, collab.RowChange{
		RowID:      line.ID,
		NaturalKey: line.Key(),
	}))
	return nil
}

func (r *NotifyingLineRepository) publish(ctx context.Context, event collab.GridEvent) {
	if r.transport == nil {
		return
	}
	if err := r.transport.Publish(ctx, event); err != nil {
		r.logger.Warn("row change notification failed",
			zap.String("kind", string(event.Kind)),
			zap.String("store_id", event.StoreID.String()),
			zap.Error(err),
		)
	}
}

// Ensure NotifyingLineRepository implements LineRepository
var _ staging.LineRepository = (*NotifyingLineRepository)(nil)
