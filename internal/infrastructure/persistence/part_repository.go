package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/catalog"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPartRepository implements catalog.PartRepository using GORM
type GormPartRepository struct {
	db *gorm.DB
}

// NewGormPartRepository creates a new GormPartRepository
func NewGormPartRepository(db *gorm.DB) *GormPartRepository {
	return &GormPartRepository{db: db}
}

// Lookup finds one part by identifier within a store
func (r *GormPartRepository) Lookup(ctx context.Context, storeID uuid.UUID, partIdentifier string) (*catalog.Part, error) {
	var part catalog.Part
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND part_identifier = ?", storeID, partIdentifier).
		First(&part).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &part, nil
}

// LookupMany loads a snapshot for a set of identifiers in one round trip
func (r *GormPartRepository) LookupMany(ctx context.Context, storeID uuid.UUID, partIdentifiers []string) (catalog.Snapshot, error) {
	snapshot := make(catalog.Snapshot, len(partIdentifiers))
	if len(partIdentifiers) == 0 {
		return snapshot, nil
	}
	var parts []catalog.Part
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND part_identifier IN ?", storeID, partIdentifiers).
		Find(&parts).Error; err != nil {
		return nil, err
	}
	for _, part := range parts {
		snapshot[part.PartIdentifier] = part
	}
	return snapshot, nil
}

// DecrementStock atomically subtracts quantity from a part's stock on
// hand. The guard rides in the WHERE clause so two concurrent commits
// cannot both succeed past the last unit.
func (r *GormPartRepository) DecrementStock(ctx context.Context, storeID uuid.UUID, partIdentifier string, quantity decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&catalog.Part{}).
		Where("store_id = ? AND part_identifier = ? AND quantity_on_hand >= ?", storeID, partIdentifier, quantity).
		Update("quantity_on_hand", gorm.Expr("quantity_on_hand - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing part from a stock shortfall
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&catalog.Part{}).
			Where("store_id = ? AND part_identifier = ?", storeID, partIdentifier).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrInsufficientStock
	}
	return nil
}

// Ensure GormPartRepository implements PartRepository
var _ catalog.PartRepository = (*GormPartRepository)(nil)
