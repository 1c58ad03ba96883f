package reconcile

import (
	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/staging"
)

// Options steers one reconciliation run.
type Options struct {
	// OverrideChannel forces every merged line onto the configured
	// channel and sub-store, ignoring both scanned records and parser
	// labels.
	OverrideChannel bool
	Channel         string
	SubStore        string
	// DefaultChannel is used when neither a scanned record nor the
	// parser offers an attribution.
	DefaultChannel string
}

// SkippedLine records one import line that never entered the grid.
type SkippedLine struct {
	TrackingNumber string `json:"tracking_number"`
	OrderID        string `json:"order_id"`
	Reason         string `json:"reason"`
}

// MergedLine identifies one line the merge imported or updated.
type MergedLine struct {
	LineID         string `json:"line_id"`
	TrackingNumber string `json:"tracking_number"`
	OrderID        string `json:"order_id"`
}

// Result is the output of one reconciliation run: the merged working set
// plus the three log buckets.
type Result struct {
	Grid         []LineResponse `json:"grid"`
	Imported     []MergedLine   `json:"imported"`
	Updated      []MergedLine   `json:"updated"`
	Skipped      []SkippedLine  `json:"skipped"`
	Placeholders int            `json:"placeholders"`
}

// LineResponse is the application-level view of a staged line.
type LineResponse struct {
	ID                  string `json:"id"`
	TrackingNumber      string `json:"tracking_number"`
	OrderID             string `json:"order_id"`
	Customer            string `json:"customer"`
	Channel             string `json:"channel"`
	SubStore            string `json:"sub_store"`
	PartIdentifier      string `json:"part_identifier"`
	SourceLabelName     string `json:"source_label_name"`
	ResolvedName        string `json:"resolved_name"`
	ResolvedBrand       string `json:"resolved_brand"`
	ResolvedApplication string `json:"resolved_application"`
	QuantityRequested   string `json:"quantity_requested"`
	UnitPrice           string `json:"unit_price"`
	TotalPrice          string `json:"total_price"`
	Currency            string `json:"currency"`
	Readiness           string `json:"readiness"`
	OverrideDuplicate   bool   `json:"override_duplicate"`
}

// ToLineResponse maps a staged line to its response form.
func ToLineResponse(l *staging.Line) LineResponse {
	return LineResponse{
		ID:                  l.ID.String(),
		TrackingNumber:      l.TrackingNumber,
		OrderID:             l.OrderID,
		Customer:            l.Customer,
		Channel:             l.Channel,
		SubStore:            l.SubStore,
		PartIdentifier:      l.PartIdentifier,
		SourceLabelName:     l.SourceLabelName,
		ResolvedName:        l.ResolvedName,
		ResolvedBrand:       l.ResolvedBrand,
		ResolvedApplication: l.ResolvedApplication,
		QuantityRequested:   l.QuantityRequested.String(),
		UnitPrice:           l.UnitPrice.String(),
		TotalPrice:          l.TotalPrice.String(),
		Currency:            l.Currency,
		Readiness:           string(l.Readiness),
		OverrideDuplicate:   l.OverrideDuplicate,
	}
}

// Commit item statuses
const (
	CommitItemCommitted = "committed"
	CommitItemSkipped   = "skipped"
	CommitItemFailed    = "failed"
)

// CommitItemOutcome is the per-line result of a commit run. One line's
// failure leaves the others unaffected; there is no cross-line
// transaction.
type CommitItemOutcome struct {
	LineID         uuid.UUID `json:"line_id"`
	TrackingNumber string    `json:"tracking_number"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason,omitempty"`
}

// CommitReport summarizes a commit run.
type CommitReport struct {
	Total     int                 `json:"total"`
	Committed int                 `json:"committed"`
	Skipped   int                 `json:"skipped"`
	Failed    int                 `json:"failed"`
	Items     []CommitItemOutcome `json:"items"`
}

func (r *CommitReport) add(outcome CommitItemOutcome) {
	r.Items = append(r.Items, outcome)
	switch outcome.Status {
	case CommitItemCommitted:
		r.Committed++
	case CommitItemSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}
