package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/catalog"
	"github.com/shiptrack/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAliasRepository implements catalog.AliasRepository using GORM
type GormAliasRepository struct {
	db *gorm.DB
}

// NewGormAliasRepository creates a new GormAliasRepository
func NewGormAliasRepository(db *gorm.DB) *GormAliasRepository {
	return &GormAliasRepository{db: db}
}

// Find returns the alias for a label within a store
func (r *GormAliasRepository) Find(ctx context.Context, storeID uuid.UUID, sourceLabelName string) (*catalog.LabelAlias, error) {
	var alias catalog.LabelAlias
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND source_label_name = ?", storeID, sourceLabelName).
		First(&alias).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &alias, nil
}

// FindMany resolves a set of labels in one round trip
func (r *GormAliasRepository) FindMany(ctx context.Context, storeID uuid.UUID, labels []string) (map[string]string, error) {
	resolved := make(map[string]string, len(labels))
	if len(labels) == 0 {
		return resolved, nil
	}
	var aliases []catalog.LabelAlias
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND source_label_name IN ?", storeID, labels).
		Find(&aliases).Error; err != nil {
		return nil, err
	}
	for _, alias := range aliases {
		resolved[alias.SourceLabelName] = alias.PartIdentifier
	}
	return resolved, nil
}

// Save inserts or overwrites the alias for a label. A label re-resolved to
// a different part on a later commit simply learns the new mapping.
func (r *GormAliasRepository) Save(ctx context.Context, alias *catalog.LabelAlias) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "store_id"}, {Name: "source_label_name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"part_identifier": alias.PartIdentifier,
				"updated_at":      alias.UpdatedAt,
			}),
		}).
		Create(alias).Error
}

// Ensure GormAliasRepository implements AliasRepository
var _ catalog.AliasRepository = (*GormAliasRepository)(nil)
