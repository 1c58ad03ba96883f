package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Entry is one appended fulfillment in the outbound ledger. The ledger is
// append-only: entries are never updated or removed.
type Entry struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	TrackingNumber string          `gorm:"type:varchar(64);not null;index"`
	OrderID        string          `gorm:"type:varchar(64);not null;index"`
	PartIdentifier string          `gorm:"type:varchar(64);not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Price          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Customer       string          `gorm:"type:varchar(128)"`
	Channel        string          `gorm:"type:varchar(32)"`
	SubStore       string          `gorm:"type:varchar(64)"`
	Operator       string          `gorm:"type:varchar(64)"`
	FulfilledAt    time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Entry) TableName() string {
	return "outbound_ledger"
}

// NewEntry creates a ledger entry for a committed line.
func NewEntry(storeID uuid.UUID, trackingNumber, orderID, partIdentifier string, quantity, price decimal.Decimal, customer, channel, subStore, operator string) (*Entry, error) {
	if trackingNumber == "" && orderID == "" {
		return nil, shared.NewDomainError("INVALID_ENTRY", "A ledger entry needs a tracking number or an order ID")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	return &Entry{
		ID:             uuid.New(),
		StoreID:        storeID,
		TrackingNumber: trackingNumber,
		OrderID:        orderID,
		PartIdentifier: partIdentifier,
		Quantity:       quantity,
		Price:          price,
		Customer:       customer,
		Channel:        channel,
		SubStore:       subStore,
		Operator:       operator,
		FulfilledAt:    time.Now(),
	}, nil
}

// MatchedSet reports which of a queried set of identifiers already appear
// in the ledger, driving the "already fulfilled" import filter.
type MatchedSet struct {
	TrackingNumbers map[string]struct{}
	OrderIDs        map[string]struct{}
}

// Contains reports whether either identifier of a line is already
// fulfilled.
func (m MatchedSet) Contains(trackingNumber, orderID string) bool {
	if trackingNumber != "" {
		if _, ok := m.TrackingNumbers[trackingNumber]; ok {
			return true
		}
	}
	if orderID != "" {
		if _, ok := m.OrderIDs[orderID]; ok {
			return true
		}
	}
	return false
}

// Repository is the append-only outbound ledger.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	// ExistsForTrackingOrOrder returns the subset of the given tracking
	// numbers and order IDs that already have ledger entries.
	ExistsForTrackingOrOrder(ctx context.Context, storeID uuid.UUID, trackingNumbers, orderIDs []string) (MatchedSet, error)
}
