package staging

import (
	"context"

	"github.com/google/uuid"
)

// LineRepository defines persistence operations for staged fulfillment
// lines. Update and Delete fail with shared.ErrNotFound when the row no
// longer exists; callers translate that into a stale-reference error for
// the editing operator.
type LineRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Line, error)
	// FindAllForStore returns the full working set for a store's grid.
	FindAllForStore(ctx context.Context, storeID uuid.UUID) ([]Line, error)
	Insert(ctx context.Context, line *Line) error
	Update(ctx context.Context, line *Line) error
	// UpdateFields patches individual columns on a row, used by the
	// debounced grid writer.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}
