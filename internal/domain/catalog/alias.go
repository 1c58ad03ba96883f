package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LabelAlias maps a free-text import label to the part identifier an
// operator resolved it to. Recorded at commit time and consulted on the
// next import so the same label auto-resolves without retyping.
type LabelAlias struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_alias_store_label,priority:1"`
	SourceLabelName string    `gorm:"type:varchar(256);not null;uniqueIndex:idx_alias_store_label,priority:2"`
	PartIdentifier  string    `gorm:"type:varchar(64);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (LabelAlias) TableName() string {
	return "label_aliases"
}

// NewLabelAlias creates an alias record.
func NewLabelAlias(storeID uuid.UUID, sourceLabelName, partIdentifier string) *LabelAlias {
	now := time.Now()
	return &LabelAlias{
		ID:              uuid.New(),
		StoreID:         storeID,
		SourceLabelName: sourceLabelName,
		PartIdentifier:  partIdentifier,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AliasRepository stores label aliases.
type AliasRepository interface {
	// Find returns the alias for a label, or shared.ErrNotFound.
	Find(ctx context.Context, storeID uuid.UUID, sourceLabelName string) (*LabelAlias, error)
	// FindMany resolves a set of labels in one round trip; unknown
	// labels are absent from the result map.
	FindMany(ctx context.Context, storeID uuid.UUID, labels []string) (map[string]string, error)
	// Save inserts or overwrites the alias for a label.
	Save(ctx context.Context, alias *LabelAlias) error
}
