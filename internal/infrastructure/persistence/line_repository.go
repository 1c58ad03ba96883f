package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/staging"
	"gorm.io/gorm"
)

// LinePatchFields contains the columns the debounced grid writer may patch
var LinePatchFields = map[string]bool{
	"tracking_number":    true,
	"order_id":           true,
	"customer":           true,
	"channel":            true,
	"sub_store":          true,
	"part_identifier":    true,
	"source_label_name":  true,
	"quantity_requested": true,
	"unit_price":         true,
	"total_price":        true,
	"currency":           true,
	"override_duplicate": true,
}

// GormLineRepository implements staging.LineRepository using GORM
type GormLineRepository struct {
	db *gorm.DB
}

// NewGormLineRepository creates a new GormLineRepository
func NewGormLineRepository(db *gorm.DB) *GormLineRepository {
	return &GormLineRepository{db: db}
}

// FindByID finds a staged line by ID
func (r *GormLineRepository) FindByID(ctx context.Context, id uuid.UUID) (*staging.Line, error) {
	var line staging.Line
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &line, nil
}

// FindAllForStore returns the full working set for a store's grid,
// oldest first so grid row order is stable across reloads
func (r *GormLineRepository) FindAllForStore(ctx context.Context, storeID uuid.UUID) ([]staging.Line, error) {
	var lines []staging.Line
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC, id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// Insert creates a staged line
func (r *GormLineRepository) Insert(ctx context.Context, line *staging.Line) error {
	return r.db.WithContext(ctx).Create(line).Error
}

// Update saves a full staged line
func (r *GormLineRepository) Update(ctx context.Context, line *staging.Line) error {
	result := r.db.WithContext(ctx).
		Model(&staging.Line{}).
		Where("id = ?", line.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(line)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateFields patches individual columns on a row. Unknown columns are
// rejected so a malformed grid patch cannot touch arbitrary state.
func (r *GormLineRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	for column := range fields {
		if !LinePatchFields[column] {
			return shared.NewDomainError("INVALID_FIELD", "Unknown grid column: "+column)
		}
	}
	result := r.db.WithContext(ctx).
		Model(&staging.Line{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a staged line
func (r *GormLineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&staging.Line{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormLineRepository implements LineRepository
var _ staging.LineRepository = (*GormLineRepository)(nil)
