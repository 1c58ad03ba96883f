package tracking

import (
	"time"

	"github.com/shiptrack/backend/internal/domain/tracking"
)

// Batch item outcome statuses
const (
	BatchItemSucceeded        = "succeeded"
	BatchItemDuplicateInBatch = "duplicate_in_batch"
	BatchItemConflict         = "conflict"
	BatchItemNotFound         = "not_found"
	BatchItemFailed           = "failed"
)

// BatchItemOutcome is the per-item result of a bulk scan or verify.
type BatchItemOutcome struct {
	Index          int    `json:"index"`
	TrackingNumber string `json:"tracking_number"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
}

// BatchReport summarizes a bulk operation. A bulk operation never aborts
// on one item's failure; every item lands in exactly one bucket.
type BatchReport struct {
	Total      int                `json:"total"`
	Succeeded  int                `json:"succeeded"`
	Duplicates int                `json:"duplicates"`
	Conflicts  int                `json:"conflicts"`
	Failed     int                `json:"failed"`
	Items      []BatchItemOutcome `json:"items"`
}

func (r *BatchReport) add(outcome BatchItemOutcome) {
	r.Items = append(r.Items, outcome)
	switch outcome.Status {
	case BatchItemSucceeded:
		r.Succeeded++
	case BatchItemDuplicateInBatch:
		r.Duplicates++
	case BatchItemConflict:
		r.Conflicts++
	default:
		r.Failed++
	}
}

// RecordResponse is the application-level view of a tracking record.
type RecordResponse struct {
	ID             string     `json:"id"`
	TrackingNumber string     `json:"tracking_number"`
	Channel        string     `json:"channel"`
	SubStore       string     `json:"sub_store"`
	Customer       string     `json:"customer"`
	Stage          string     `json:"stage"`
	ScannedAt      *time.Time `json:"scanned_at,omitempty"`
	ScannedBy      string     `json:"scanned_by,omitempty"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	VerifiedBy     string     `json:"verified_by,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Deleted        bool       `json:"deleted"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ToRecordResponse maps a domain record to its response form.
func ToRecordResponse(r *tracking.Record) RecordResponse {
	return RecordResponse{
		ID:             r.ID.String(),
		TrackingNumber: r.TrackingNumber,
		Channel:        r.Channel,
		SubStore:       r.SubStore,
		Customer:       r.Customer,
		Stage:          r.Stage().String(),
		ScannedAt:      r.ScannedAt,
		ScannedBy:      r.ScannedBy,
		VerifiedAt:     r.VerifiedAt,
		VerifiedBy:     r.VerifiedBy,
		CompletedAt:    r.CompletedAt,
		Deleted:        r.Deleted,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
