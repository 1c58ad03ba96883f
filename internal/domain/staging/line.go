package staging

import (
	"time"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/tracking"
	"github.com/shopspring/decimal"
)

// ReadinessStatus is the derived state of a staged line indicating what,
// if anything, blocks it from commit.
type ReadinessStatus string

const (
	ReadinessNotYetScanned         ReadinessStatus = "not_yet_scanned"
	ReadinessPendingVerification   ReadinessStatus = "pending_verification"
	ReadinessNeedsPartIdentifier   ReadinessStatus = "needs_part_identifier"
	ReadinessDuplicateConflict     ReadinessStatus = "duplicate_conflict"
	ReadinessCatalogMismatch       ReadinessStatus = "catalog_mismatch"
	ReadinessInsufficientStock     ReadinessStatus = "insufficient_stock"
	ReadinessInsufficientAggregate ReadinessStatus = "insufficient_aggregate_stock"
	ReadinessReady                 ReadinessStatus = "ready"
)

// NaturalKey identifies a staged line independent of its persisted ID.
// Import upserts match on this key so re-running the same batch updates
// existing lines instead of duplicating them.
type NaturalKey struct {
	TrackingNumber  string
	OrderID         string
	PartIdentifier  string // blank when not yet assigned
	SourceLabelName string
}

// Line is one staged fulfillment line awaiting reconciliation and commit.
// It is created when an import line is merged with a tracking record, or
// synthesized as a placeholder for a scanned shipment with no import data.
type Line struct {
	shared.StoreAggregateRoot
	TrackingNumber      string          `gorm:"type:varchar(64);not null;index:idx_line_store_tracking"`
	OrderID             string          `gorm:"type:varchar(64);not null"`
	Customer            string          `gorm:"type:varchar(128)"`
	Channel             string          `gorm:"type:varchar(32)"`
	SubStore            string          `gorm:"type:varchar(64)"`
	PartIdentifier      string          `gorm:"type:varchar(64);index"`
	SourceLabelName     string          `gorm:"type:varchar(256)"`
	ResolvedName        string          `gorm:"type:varchar(128)"`
	ResolvedBrand       string          `gorm:"type:varchar(64)"`
	ResolvedApplication string          `gorm:"type:varchar(128)"`
	QuantityRequested   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency            string          `gorm:"type:varchar(8);default:'CNY'"`
	Readiness           ReadinessStatus `gorm:"type:varchar(32);not null;default:'not_yet_scanned'"`
	OverrideDuplicate   bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Line) TableName() string {
	return "fulfillment_lines"
}

// NewLine creates a staged line from merged import data.
func NewLine(storeID uuid.UUID, trackingNumber, orderID string) (*Line, error) {
	normalized := tracking.NormalizeTrackingNumber(trackingNumber)
	if normalized == "" && orderID == "" {
		return nil, shared.NewDomainError("INVALID_LINE", "A line needs a tracking number or an order ID")
	}
	return &Line{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID),
		TrackingNumber:     normalized,
		OrderID:            orderID,
		QuantityRequested:  decimal.Zero,
		UnitPrice:          decimal.Zero,
		TotalPrice:         decimal.Zero,
		Currency:           "CNY",
		Readiness:          ReadinessNotYetScanned,
	}, nil
}

// NewPlaceholderLine synthesizes a zero-quantity line for a scanned or
// verified shipment that had no matching line in the import batch, so the
// shipment still appears in the staging grid as pending input.
func NewPlaceholderLine(r *tracking.Record) *Line {
	return &Line{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(r.StoreID),
		TrackingNumber:     r.TrackingNumber,
		Customer:           r.Customer,
		Channel:            r.Channel,
		SubStore:           r.SubStore,
		QuantityRequested:  decimal.Zero,
		UnitPrice:          decimal.Zero,
		TotalPrice:         decimal.Zero,
		Currency:           "CNY",
		Readiness:          ReadinessPendingVerification,
	}
}

// Key returns the natural upsert key for this line.
func (l *Line) Key() NaturalKey {
	return NaturalKey{
		TrackingNumber:  l.TrackingNumber,
		OrderID:         l.OrderID,
		PartIdentifier:  l.PartIdentifier,
		SourceLabelName: l.SourceLabelName,
	}
}

// duplicateKey is the wider identity used for in-grid duplicate conflict
// detection. Two lines sharing it are almost certainly the same physical
// order entered twice.
type duplicateKey struct {
	TrackingNumber  string
	Customer        string
	OrderID         string
	PartIdentifier  string
	SourceLabelName string
}

func (l *Line) dupKey() duplicateKey {
	return duplicateKey{
		TrackingNumber:  l.TrackingNumber,
		Customer:        l.Customer,
		OrderID:         l.OrderID,
		PartIdentifier:  l.PartIdentifier,
		SourceLabelName: l.SourceLabelName,
	}
}

// UpdateFromImport refreshes the mutable import-sourced fields. Called
// when re-running an import batch matches an existing staged line.
func (l *Line) UpdateFromImport(quantity, totalPrice decimal.Decimal, customer string) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	l.QuantityRequested = quantity
	l.TotalPrice = totalPrice
	if quantity.IsPositive() {
		l.UnitPrice = totalPrice.Div(quantity).Round(4)
	}
	if customer != "" {
		l.Customer = customer
	}
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// SetPartIdentifier assigns the canonical part key and clears any stale
// resolved catalog attributes so the next readiness pass re-resolves them.
func (l *Line) SetPartIdentifier(partIdentifier string) {
	l.PartIdentifier = partIdentifier
	l.ResolvedName = ""
	l.ResolvedBrand = ""
	l.ResolvedApplication = ""
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// ResolveCatalog fills the display attributes from a catalog entry.
func (l *Line) ResolveCatalog(name, brand, application string) {
	l.ResolvedName = name
	l.ResolvedBrand = brand
	l.ResolvedApplication = application
}

// IsCommittable reports whether the operator may select this line for
// commit: either Ready, or a duplicate conflict explicitly overridden.
func (l *Line) IsCommittable() bool {
	if l.Readiness == ReadinessReady {
		return true
	}
	return l.Readiness == ReadinessDuplicateConflict && l.OverrideDuplicate
}
