package tracking

import (
	"context"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/shared"
)

// RecordRepository defines persistence operations for tracking records
type RecordRepository interface {
	// FindByID finds a record by its ID, deleted or not
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// FindByTrackingNumber finds a non-deleted record by normalized
	// tracking number within a store
	FindByTrackingNumber(ctx context.Context, storeID uuid.UUID, trackingNumber string) (*Record, error)
	// FindPending returns all non-deleted records at stage 1 or 2
	// (scanned but not yet completed) within a store
	FindPending(ctx context.Context, storeID uuid.UUID) ([]Record, error)
	// FindAllForStore lists records with filtering and pagination
	FindAllForStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]Record, int64, error)
	// Save inserts or updates a record
	Save(ctx context.Context, record *Record) error
	// Delete removes a record permanently. Fails with ErrNotFound on a
	// missing ID rather than silently succeeding.
	Delete(ctx context.Context, id uuid.UUID) error
}
