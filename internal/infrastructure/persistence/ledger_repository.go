package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormLedgerRepository implements the append-only outbound ledger using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append adds a ledger entry. Entries are never updated or removed.
func (r *GormLedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ExistsForTrackingOrOrder returns the subset of the given tracking
// numbers and order IDs that already have ledger entries in the store
func (r *GormLedgerRepository) ExistsForTrackingOrOrder(ctx context.Context, storeID uuid.UUID, trackingNumbers, orderIDs []string) (ledger.MatchedSet, error) {
	matched := ledger.MatchedSet{
		TrackingNumbers: make(map[string]struct{}),
		OrderIDs:        make(map[string]struct{}),
	}
	if len(trackingNumbers) == 0 && len(orderIDs) == 0 {
		return matched, nil
	}

	query := r.db.WithContext(ctx).Model(&ledger.Entry{}).
		Where("store_id = ?", storeID)
	switch {
	case len(trackingNumbers) > 0 && len(orderIDs) > 0:
		query = query.Where("tracking_number IN ? OR order_id IN ?", trackingNumbers, orderIDs)
	case len(trackingNumbers) > 0:
		query = query.Where("tracking_number IN ?", trackingNumbers)
	default:
		query = query.Where("order_id IN ?", orderIDs)
	}

	var rows []struct {
		TrackingNumber string
		OrderID        string
	}
	if err := query.Select("tracking_number", "order_id").Find(&rows).Error; err != nil {
		return ledger.MatchedSet{}, err
	}

	want := func(values []string) map[string]struct{} {
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			if v != "" {
				set[v] = struct{}{}
			}
		}
		return set
	}
	wantTracking := want(trackingNumbers)
	wantOrders := want(orderIDs)

	for _, row := range rows {
		if _, ok := wantTracking[row.TrackingNumber]; ok {
			matched.TrackingNumbers[row.TrackingNumber] = struct{}{}
		}
		if _, ok := wantOrders[row.OrderID]; ok {
			matched.OrderIDs[row.OrderID] = struct{}{}
		}
	}
	return matched, nil
}

// Ensure GormLedgerRepository implements the ledger repository
var _ ledger.Repository = (*GormLedgerRepository)(nil)
