package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/tracking"
	"gorm.io/gorm"
)

// RecordSortFields contains allowed sort fields for tracking records
var RecordSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"tracking_number": true,
	"channel":         true,
	"sub_store":       true,
	"scanned_at":      true,
	"verified_at":     true,
	"completed_at":    true,
}

// GormRecordRepository implements tracking.RecordRepository using GORM
type GormRecordRepository struct {
	db *gorm.DB
}

// NewGormRecordRepository creates a new GormRecordRepository
func NewGormRecordRepository(db *gorm.DB) *GormRecordRepository {
	return &GormRecordRepository{db: db}
}

// FindByID finds a record by ID, deleted or not
func (r *GormRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*tracking.Record, error) {
	var record tracking.Record
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByTrackingNumber finds a live record by normalized tracking number
// within a store
func (r *GormRecordRepository) FindByTrackingNumber(ctx context.Context, storeID uuid.UUID, trackingNumber string) (*tracking.Record, error) {
	normalized := tracking.NormalizeTrackingNumber(trackingNumber)
	var record tracking.Record
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND tracking_number = ? AND deleted = ?", storeID, normalized, false).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindPending returns all live records not yet completed within a store
func (r *GormRecordRepository) FindPending(ctx context.Context, storeID uuid.UUID) ([]tracking.Record, error) {
	var records []tracking.Record
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND deleted = ? AND completed_at IS NULL", storeID, false).
		Order("scanned_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindAllForStore lists live records with filtering and pagination
func (r *GormRecordRepository) FindAllForStore(ctx context.Context, storeID uuid.UUID, filter shared.Filter) ([]tracking.Record, int64, error) {
	query := r.db.WithContext(ctx).Model(&tracking.Record{}).
		Where("store_id = ? AND deleted = ?", storeID, false)

	query = r.applyFilters(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := "created_at"
	if filter.OrderBy != "" && RecordSortFields[filter.OrderBy] {
		orderBy = filter.OrderBy
	}
	dir := "DESC"
	if filter.OrderDir == "asc" {
		dir = "ASC"
	}
	query = query.Order(orderBy + " " + dir)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var records []tracking.Record
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *GormRecordRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("tracking_number LIKE ? OR customer LIKE ?", pattern, pattern)
	}
	if channel, ok := filter.Filters["channel"]; ok {
		query = query.Where("channel = ?", channel)
	}
	if subStore, ok := filter.Filters["sub_store"]; ok {
		query = query.Where("sub_store = ?", subStore)
	}
	if stage, ok := filter.Filters["stage"]; ok {
		switch stage {
		case "scanned":
			query = query.Where("verified_at IS NULL AND completed_at IS NULL")
		case "verified":
			query = query.Where("verified_at IS NOT NULL AND completed_at IS NULL")
		case "completed":
			query = query.Where("completed_at IS NOT NULL")
		}
	}
	return query
}

// Save inserts or updates a record
func (r *GormRecordRepository) Save(ctx context.Context, record *tracking.Record) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// Delete removes a record permanently
func (r *GormRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&tracking.Record{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormRecordRepository implements RecordRepository
var _ tracking.RecordRepository = (*GormRecordRepository)(nil)
