package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Part is the read model of one catalog entry: the canonical part key and
// its reference name, brand, fitment and stock on hand.
type Part struct {
	PartIdentifier string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_part_store_identifier,priority:2" json:"part_identifier"`
	Name           string          `gorm:"type:varchar(128)" json:"name"`
	Brand          string          `gorm:"type:varchar(64)" json:"brand"`
	Application    string          `gorm:"type:varchar(128)" json:"application"`
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity_on_hand"`
	StoreID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_part_store_identifier,priority:1" json:"store_id"`
}

// TableName returns the table name for GORM
func (Part) TableName() string {
	return "catalog_parts"
}

// Snapshot is a request-lifetime view of the catalog keyed by part
// identifier. It is loaded once per reconciliation or commit call and
// passed in explicitly; there is no ambient shared cache.
type Snapshot map[string]Part

// PartRepository exposes the part catalog. Lookup misses return
// shared.ErrNotFound.
type PartRepository interface {
	Lookup(ctx context.Context, storeID uuid.UUID, partIdentifier string) (*Part, error)
	// LookupMany loads a snapshot for a set of identifiers in one round
	// trip. Unknown identifiers are simply absent from the result.
	LookupMany(ctx context.Context, storeID uuid.UUID, partIdentifiers []string) (Snapshot, error)
	// DecrementStock atomically subtracts quantity from a part's stock
	// on hand. Fails when the part is missing or stock would go
	// negative.
	DecrementStock(ctx context.Context, storeID uuid.UUID, partIdentifier string, quantity decimal.Decimal) error
}
