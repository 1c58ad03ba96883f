package tracking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/tracking"
)

// ScanCommand carries one intake scan.
type ScanCommand struct {
	TrackingNumber string
	Channel        string
	SubStore       string
	Operator       string
}

// TrackingService coordinates the checkpoint lifecycle of tracking
// records: intake scan, packing verification, edits, soft delete and undo.
type TrackingService struct {
	records  tracking.RecordRepository
	undo     *UndoRegistry
	eventBus shared.EventPublisher
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(records tracking.RecordRepository, undo *UndoRegistry) *TrackingService {
	return &TrackingService{
		records: records,
		undo:    undo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TrackingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventBus = publisher
}

func (s *TrackingService) publishDomainEvents(ctx context.Context, r *tracking.Record) {
	if s.eventBus == nil {
		return
	}
	events := r.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventBus.Publish(ctx, events...)
	r.ClearDomainEvents()
}

// Scan creates a record at the intake-scan checkpoint. Scanning a tracking
// number that already has a live scanned record fails with a duplicate-scan
// conflict naming the offending number, since re-scanning a parcel is the
// most frequent operator mistake.
func (s *TrackingService) Scan(ctx context.Context, storeID uuid.UUID, cmd ScanCommand) (*RecordResponse, error) {
	normalized := tracking.NormalizeTrackingNumber(cmd.TrackingNumber)
	if normalized == "" {
		return nil, shared.NewDomainError("INVALID_TRACKING_NUMBER", "Tracking number cannot be empty")
	}

	existing, err := s.records.FindByTrackingNumber(ctx, storeID, normalized)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing scan: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError("DUPLICATE_SCAN",
			fmt.Sprintf("Tracking number %s was already scanned", normalized))
	}

	record, err := tracking.NewRecord(storeID, cmd.TrackingNumber, cmd.Channel, cmd.SubStore, cmd.Operator)
	if err != nil {
		return nil, err
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}
	s.publishDomainEvents(ctx, record)

	resp := ToRecordResponse(record)
	return &resp, nil
}

// BulkScan scans a batch of tracking numbers. The in-batch duplicate check
// runs first, without any writes; only non-duplicate entries are submitted,
// and each item's outcome lands in the report.
func (s *TrackingService) BulkScan(ctx context.Context, storeID uuid.UUID, trackingNumbers []string, channel, subStore, operator string) *BatchReport {
	report := &BatchReport{Total: len(trackingNumbers)}

	for _, entry := range tracking.MarkDuplicates(trackingNumbers) {
		if entry.Duplicate {
			report.add(BatchItemOutcome{
				Index:          entry.Index,
				TrackingNumber: entry.Normalized,
				Status:         BatchItemDuplicateInBatch,
				Reason:         "repeated within this batch",
			})
			continue
		}

		_, err := s.Scan(ctx, storeID, ScanCommand{
			TrackingNumber: entry.Raw,
			Channel:        channel,
			SubStore:       subStore,
			Operator:       operator,
		})
		report.add(outcomeFor(entry, err))
	}
	return report
}

// Verify records packing verification for a scanned tracking number.
func (s *TrackingService) Verify(ctx context.Context, storeID uuid.UUID, trackingNumber, operator string) (*RecordResponse, error) {
	normalized := tracking.NormalizeTrackingNumber(trackingNumber)
	record, err := s.records.FindByTrackingNumber(ctx, storeID, normalized)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND",
				fmt.Sprintf("Tracking number %s has not been scanned", normalized))
		}
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	if err := record.Verify(operator); err != nil {
		return nil, err
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}
	s.publishDomainEvents(ctx, record)

	resp := ToRecordResponse(record)
	return &resp, nil
}

// BulkVerify verifies a batch of tracking numbers with the same in-batch
// dedup pre-check as BulkScan.
func (s *TrackingService) BulkVerify(ctx context.Context, storeID uuid.UUID, trackingNumbers []string, operator string) *BatchReport {
	report := &BatchReport{Total: len(trackingNumbers)}

	for _, entry := range tracking.MarkDuplicates(trackingNumbers) {
		if entry.Duplicate {
			report.add(BatchItemOutcome{
				Index:          entry.Index,
				TrackingNumber: entry.Normalized,
				Status:         BatchItemDuplicateInBatch,
				Reason:         "repeated within this batch",
			})
			continue
		}

		_, err := s.Verify(ctx, storeID, entry.Raw, operator)
		report.add(outcomeFor(entry, err))
	}
	return report
}

// outcomeFor buckets a single-item error into a batch outcome.
func outcomeFor(entry tracking.BatchEntry, err error) BatchItemOutcome {
	outcome := BatchItemOutcome{
		Index:          entry.Index,
		TrackingNumber: entry.Normalized,
		Status:         BatchItemSucceeded,
	}
	if err == nil {
		return outcome
	}

	outcome.Reason = err.Error()
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case "DUPLICATE_SCAN", "ALREADY_VERIFIED":
			outcome.Status = BatchItemConflict
		case "NOT_FOUND":
			outcome.Status = BatchItemNotFound
		default:
			outcome.Status = BatchItemFailed
		}
		return outcome
	}
	outcome.Status = BatchItemFailed
	return outcome
}

// Edit applies operator edits to a record that has not completed
// reconciliation.
func (s *TrackingService) Edit(ctx context.Context, id uuid.UUID, fields tracking.EditFields) (*RecordResponse, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := record.Edit(fields); err != nil {
		return nil, err
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}
	s.publishDomainEvents(ctx, record)

	resp := ToRecordResponse(record)
	return &resp, nil
}

// Delete soft-deletes a record, pushing its full prior snapshot onto the
// session's undo stack first.
func (s *TrackingService) Delete(ctx context.Context, sessionID string, id uuid.UUID) error {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return err
	}

	snapshot := record.Snapshot()
	if err := record.MarkDeleted(); err != nil {
		return err
	}
	if err := s.records.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	s.undo.Push(sessionID, snapshot)
	s.publishDomainEvents(ctx, record)
	return nil
}

// UndoLastDelete pops the session's most recent deletion and restores the
// record verbatim, stage timestamps included.
func (s *TrackingService) UndoLastDelete(ctx context.Context, sessionID string) (*RecordResponse, error) {
	snapshot, err := s.undo.Pop(sessionID)
	if err != nil {
		return nil, err
	}

	record, err := s.records.FindByID(ctx, snapshot.ID)
	if err != nil {
		// The deleted row is gone from the store; re-insert the snapshot.
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("failed to load deleted record: %w", err)
		}
		record = &tracking.Record{}
	}

	record.RestoreFrom(snapshot)
	if err := s.records.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to restore record: %w", err)
	}
	s.publishDomainEvents(ctx, record)

	resp := ToRecordResponse(record)
	return &resp, nil
}

// Get returns one record by ID.
func (s *TrackingService) Get(ctx context.Context, id uuid.UUID) (*RecordResponse, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRecordResponse(record)
	return &resp, nil
}

// List returns records for a store with filtering and pagination.
func (s *TrackingService) List(ctx context.Context, storeID uuid.UUID, filter shared.Filter) (*shared.Paginated[RecordResponse], error) {
	records, total, err := s.records.FindAllForStore(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]RecordResponse, 0, len(records))
	for i := range records {
		items = append(items, ToRecordResponse(&records[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}
