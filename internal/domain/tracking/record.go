package tracking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/shared"
)

// Stage identifies the checkpoint a shipment has reached.
type Stage int

const (
	StageNotScanned Stage = iota
	StageScanned          // intake scan
	StageVerified         // packing verification
	StageCompleted        // fulfillment reconciliation
)

// String returns a human-readable stage name
func (s Stage) String() string {
	switch s {
	case StageScanned:
		return "scanned"
	case StageVerified:
		return "verified"
	case StageCompleted:
		return "completed"
	default:
		return "not_scanned"
	}
}

// NormalizeTrackingNumber trims surrounding whitespace and upper-cases the
// tracking number. All uniqueness checks operate on the normalized form so
// that "ab c123 " and "ABC123" collide as operators expect.
func NormalizeTrackingNumber(tn string) string {
	return strings.ToUpper(strings.TrimSpace(tn))
}

// Record represents one outbound shipment moving through the three
// checkpoints: intake scan, packing verification and fulfillment
// reconciliation. It is the aggregate root for tracking operations.
// Stage timestamps are monotonic: a record is never verified before it is
// scanned, and never completed before it is verified.
type Record struct {
	shared.StoreAggregateRoot
	TrackingNumber string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_record_store_tracking,priority:2"`
	Channel        string     `gorm:"type:varchar(32);not null"`
	SubStore       string     `gorm:"type:varchar(64)"`
	Customer       string     `gorm:"type:varchar(128)"`
	ScannedAt      *time.Time `gorm:"index"`
	ScannedBy      string     `gorm:"type:varchar(64)"`
	VerifiedAt     *time.Time
	VerifiedBy     string `gorm:"type:varchar(64)"`
	CompletedAt    *time.Time
	Deleted        bool `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (Record) TableName() string {
	return "tracking_records"
}

// NewRecord creates a record at the intake-scan checkpoint. The tracking
// number is stored normalized.
func NewRecord(storeID uuid.UUID, trackingNumber, channel, subStore, operator string) (*Record, error) {
	normalized := NormalizeTrackingNumber(trackingNumber)
	if normalized == "" {
		return nil, shared.NewDomainError("INVALID_TRACKING_NUMBER", "Tracking number cannot be empty")
	}
	if operator == "" {
		return nil, shared.NewDomainError("INVALID_OPERATOR", "Operator name is required")
	}

	now := time.Now()
	r := &Record{
		StoreAggregateRoot: shared.NewStoreAggregateRoot(storeID),
		TrackingNumber:     normalized,
		Channel:            channel,
		SubStore:           subStore,
		ScannedAt:          &now,
		ScannedBy:          operator,
	}
	r.AddDomainEvent(NewRecordScannedEvent(r, operator))
	return r, nil
}

// Stage returns the highest checkpoint this record has reached.
func (r *Record) Stage() Stage {
	switch {
	case r.CompletedAt != nil:
		return StageCompleted
	case r.VerifiedAt != nil:
		return StageVerified
	case r.ScannedAt != nil:
		return StageScanned
	default:
		return StageNotScanned
	}
}

// Verify records packing verification. Fails when the record is already
// verified; scanning is a construction invariant so stage1 always holds.
func (r *Record) Verify(operator string) error {
	if operator == "" {
		return shared.NewDomainError("INVALID_OPERATOR", "Operator name is required")
	}
	if r.Deleted {
		return shared.ErrNotFound
	}
	if r.VerifiedAt != nil {
		return shared.ErrAlreadyVerified
	}
	now := time.Now()
	r.VerifiedAt = &now
	r.VerifiedBy = operator
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(NewRecordVerifiedEvent(r, operator))
	return nil
}

// Complete marks the record as reconciled against stock. Requires the
// record to be verified first.
func (r *Record) Complete() error {
	if r.VerifiedAt == nil {
		return shared.NewDomainError("NOT_VERIFIED", "Record must be verified before completion")
	}
	if r.CompletedAt != nil {
		return shared.ErrInvalidState
	}
	now := time.Now()
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(NewRecordCompletedEvent(r))
	return nil
}

// EditFields carries the mutable attributes an operator may change.
// Nil pointers leave the existing value untouched.
type EditFields struct {
	TrackingNumber *string
	Channel        *string
	SubStore       *string
	Customer       *string
}

// Edit applies operator edits. Editing is blocked once the record has
// completed reconciliation.
func (r *Record) Edit(fields EditFields) error {
	if r.CompletedAt != nil {
		return shared.NewDomainError("ALREADY_COMPLETED", "Completed records cannot be edited")
	}
	if r.Deleted {
		return shared.ErrStaleReference
	}
	if fields.TrackingNumber != nil {
		normalized := NormalizeTrackingNumber(*fields.TrackingNumber)
		if normalized == "" {
			return shared.NewDomainError("INVALID_TRACKING_NUMBER", "Tracking number cannot be empty")
		}
		r.TrackingNumber = normalized
	}
	if fields.Channel != nil {
		r.Channel = *fields.Channel
	}
	if fields.SubStore != nil {
		r.SubStore = *fields.SubStore
	}
	if fields.Customer != nil {
		r.Customer = *fields.Customer
	}
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	r.AddDomainEvent(NewRecordEditedEvent(r))
	return nil
}

// MarkDeleted soft-deletes the record. The caller is responsible for
// snapshotting the prior state onto an undo stack first.
func (r *Record) MarkDeleted() error {
	if r.Deleted {
		return shared.ErrNotFound
	}
	r.Deleted = true
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	r.AddDomainEvent(NewRecordDeletedEvent(r))
	return nil
}

// Snapshot returns a value copy of the record with pending domain events
// stripped. Used by the undo stack so a restore is field-for-field exact.
func (r *Record) Snapshot() Record {
	snap := *r
	snap.ClearDomainEvents()
	return snap
}

// RestoreFrom overwrites every field from a snapshot, reviving a
// soft-deleted record verbatim, stage timestamps included.
func (r *Record) RestoreFrom(snap Record) {
	*r = snap
	r.ClearDomainEvents()
	r.AddDomainEvent(NewRecordRestoredEvent(r))
}
