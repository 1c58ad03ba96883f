package tracking

import (
	"github.com/shiptrack/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeRecord = "TrackingRecord"

// Event type constants
const (
	EventTypeRecordScanned   = "RecordScanned"
	EventTypeRecordVerified  = "RecordVerified"
	EventTypeRecordCompleted = "RecordCompleted"
	EventTypeRecordEdited    = "RecordEdited"
	EventTypeRecordDeleted   = "RecordDeleted"
	EventTypeRecordRestored  = "RecordRestored"
)

// RecordScannedEvent is raised when a shipment passes the intake scan
type RecordScannedEvent struct {
	shared.BaseDomainEvent
	TrackingNumber string `json:"tracking_number"`
	Channel        string `json:"channel"`
	SubStore       string `json:"sub_store"`
	Operator       string `json:"operator"`
}

// NewRecordScannedEvent creates a new RecordScannedEvent
func NewRecordScannedEvent(r *Record, operator string) *RecordScannedEvent {
	return &RecordScannedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordScanned, AggregateTypeRecord, r.ID, r.StoreID),
		TrackingNumber:  r.TrackingNumber,
		Channel:         r.Channel,
		SubStore:        r.SubStore,
		Operator:        operator,
	}
}

// EventType returns the event type name
func (e *RecordScannedEvent) EventType() string {
	return EventTypeRecordScanned
}

// RecordVerifiedEvent is raised when a shipment passes packing verification
type RecordVerifiedEvent struct {
	shared.BaseDomainEvent
	TrackingNumber string `json:"tracking_number"`
	Operator       string `json:"operator"`
}

// NewRecordVerifiedEvent creates a new RecordVerifiedEvent
func NewRecordVerifiedEvent(r *Record, operator string) *RecordVerifiedEvent {
	return &RecordVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordVerified, AggregateTypeRecord, r.ID, r.StoreID),
		TrackingNumber:  r.TrackingNumber,
		Operator:        operator,
	}
}

// EventType returns the event type name
func (e *RecordVerifiedEvent) EventType() string {
	return EventTypeRecordVerified
}

// RecordCompletedEvent is raised when a shipment finishes fulfillment
// reconciliation and leaves the pipeline
type RecordCompletedEvent struct {
	shared.BaseDomainEvent
	TrackingNumber string `json:"tracking_number"`
}

// NewRecordCompletedEvent creates a new RecordCompletedEvent
func NewRecordCompletedEvent(r *Record) *RecordCompletedEvent {
	return &RecordCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordCompleted, AggregateTypeRecord, r.ID, r.StoreID),
		TrackingNumber:  r.TrackingNumber,
	}
}

// EventType returns the event type name
func (e *RecordCompletedEvent) EventType() string {
	return EventTypeRecordCompleted
}

// RecordEditedEvent is raised when an operator edits record attributes
type RecordEditedEvent struct {
	shared.BaseDomainEvent
	TrackingNumber string `json:"tracking_number"`
}

// NewRecordEditedEvent creates a new RecordEditedEvent
func NewRecordEditedEvent(r *Record) *RecordEditedEvent {
	return &RecordEditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordEdited, AggregateTypeRecord, r.ID, r.StoreID),
		TrackingNumber:  r.TrackingNumber,
	}
}

// EventType returns the event type name
func (e *RecordEditedEvent) EventType() string {
	return EventTypeRecordEdited
}

// RecordDeletedEvent is raised on soft delete
type RecordDeletedEvent struct {
	shared.BaseDomainEvent
	TrackingNumber string `json:"tracking_number"`
}

// NewRecordDeletedEvent creates a new RecordDeletedEvent
func NewRecordDeletedEvent(r *Record) *RecordDeletedEvent {
	return &RecordDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordDeleted, AggregateTypeRecord, r.ID, r.StoreID),
		TrackingNumber:  r.TrackingNumber,
	}
}

// EventType returns the event type name
func (e *RecordDeletedEvent) EventType() string {
	return EventTypeRecordDeleted
}

// RecordRestoredEvent is raised when a delete is undone
type RecordRestoredEvent struct {
	shared.BaseDomainEvent
	TrackingNumber string `json:"tracking_number"`
}

// NewRecordRestoredEvent creates a new RecordRestoredEvent
func NewRecordRestoredEvent(r *Record) *RecordRestoredEvent {
	return &RecordRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecordRestored, AggregateTypeRecord, r.ID, r.StoreID),
		TrackingNumber:  r.TrackingNumber,
	}
}

// EventType returns the event type name
func (e *RecordRestoredEvent) EventType() string {
	return EventTypeRecordRestored
}
