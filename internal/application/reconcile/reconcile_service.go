package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/catalog"
	"github.com/shiptrack/backend/internal/domain/ledger"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/staging"
	"github.com/shiptrack/backend/internal/domain/tracking"
	"go.uber.org/zap"
)

// Service merges platform imports into the staging grid, derives per-line
// readiness against scanned records and the part catalog, and commits
// selected lines to the outbound ledger.
type Service struct {
	lines    staging.LineRepository
	records  tracking.RecordRepository
	parts    catalog.PartRepository
	aliases  catalog.AliasRepository
	ledger   ledger.Repository
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewService creates a reconciliation service.
func NewService(
	lines staging.LineRepository,
	records tracking.RecordRepository,
	parts catalog.PartRepository,
	aliases catalog.AliasRepository,
	entries ledger.Repository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		lines:   lines,
		records: records,
		parts:   parts,
		aliases: aliases,
		ledger:  entries,
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventBus = publisher
}

func (s *Service) publishDomainEvents(ctx context.Context, r *tracking.Record) {
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

// Reconcile merges one parsed import batch into the store's staging grid
// and recomputes readiness for the whole working set.
//
// Cancelled, unpaid and already-fulfilled lines are filtered out before
// merging. Surviving lines upsert against existing staged lines by natural
// key, so re-running the same batch updates rather than duplicates. Pending
// scanned shipments with no import line get a placeholder so they still
// appear in the grid.
func (s *Service) Reconcile(ctx context.Context, storeID uuid.UUID, imp *staging.ParsedImport, opts Options) (*Result, error) {
	if imp == nil {
		imp = &staging.ParsedImport{}
	}

	existing, err := s.lines.FindAllForStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load staged lines: %w", err)
	}
	working := make([]*staging.Line, 0, len(existing)+len(imp.Lines))
	byKey := make(map[staging.NaturalKey]*staging.Line, len(existing))
	for i := range existing {
		line := &existing[i]
		working = append(working, line)
		byKey[line.Key()] = line
	}

	pending, err := s.records.FindPending(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending records: %w", err)
	}
	recordsByTracking := make(map[string]*tracking.Record, len(pending))
	stages := make(staging.StageLookup, len(pending))
	for i := range pending {
		rec := &pending[i]
		recordsByTracking[rec.TrackingNumber] = rec
		stages[rec.TrackingNumber] = rec.Stage()
	}

	fulfilled, err := s.loadFulfilledSet(ctx, storeID, imp.Lines)
	if err != nil {
		return nil, err
	}
	aliasMap, err := s.loadAliases(ctx, storeID, imp.Lines)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	var dirty []*staging.Line

	for _, il := range imp.Lines {
		trackingNumber := tracking.NormalizeTrackingNumber(il.TrackingNumber)

		if class := staging.ClassifyOrderStatus(il.OrderStatus); class != staging.OrderStatusProceed {
			result.Skipped = append(result.Skipped, SkippedLine{
				TrackingNumber: trackingNumber,
				OrderID:        il.OrderID,
				Reason:         class.Reason(),
			})
			continue
		}
		if fulfilled.Contains(trackingNumber, il.OrderID) {
			result.Skipped = append(result.Skipped, SkippedLine{
				TrackingNumber: trackingNumber,
				OrderID:        il.OrderID,
				Reason:         "already fulfilled",
			})
			continue
		}
		if il.Quantity.IsNegative() {
			result.Skipped = append(result.Skipped, SkippedLine{
				TrackingNumber: trackingNumber,
				OrderID:        il.OrderID,
				Reason:         "negative quantity",
			})
			continue
		}

		channel, subStore := s.attributeChannel(il, recordsByTracking[trackingNumber], imp.ChannelGuess, opts)
		partIdentifier := aliasMap[il.LineItemName]

		line, matched := matchLine(byKey, staging.NaturalKey{
			TrackingNumber:  trackingNumber,
			OrderID:         il.OrderID,
			PartIdentifier:  partIdentifier,
			SourceLabelName: il.LineItemName,
		})
		if matched {
			if err := line.UpdateFromImport(il.Quantity, il.TotalPrice, il.Customer); err != nil {
				result.Skipped = append(result.Skipped, SkippedLine{
					TrackingNumber: trackingNumber,
					OrderID:        il.OrderID,
					Reason:         err.Error(),
				})
				continue
			}
			line.Channel = channel
			line.SubStore = subStore
			dirty = append(dirty, line)
			result.Updated = append(result.Updated, MergedLine{
				LineID:         line.ID.String(),
				TrackingNumber: line.TrackingNumber,
				OrderID:        line.OrderID,
			})
			continue
		}

		line, err := staging.NewLine(storeID, il.TrackingNumber, il.OrderID)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedLine{
				TrackingNumber: trackingNumber,
				OrderID:        il.OrderID,
				Reason:         err.Error(),
			})
			continue
		}
		line.Customer = il.Customer
		line.Channel = channel
		line.SubStore = subStore
		line.SourceLabelName = il.LineItemName
		if partIdentifier != "" {
			line.SetPartIdentifier(partIdentifier)
		}
		if err := line.UpdateFromImport(il.Quantity, il.TotalPrice, il.Customer); err != nil {
			result.Skipped = append(result.Skipped, SkippedLine{
				TrackingNumber: trackingNumber,
				OrderID:        il.OrderID,
				Reason:         err.Error(),
			})
			continue
		}
		if err := s.lines.Insert(ctx, line); err != nil {
			return nil, fmt.Errorf("failed to insert staged line: %w", err)
		}
		working = append(working, line)
		byKey[line.Key()] = line
		result.Imported = append(result.Imported, MergedLine{
			LineID:         line.ID.String(),
			TrackingNumber: line.TrackingNumber,
			OrderID:        line.OrderID,
		})
	}

	// Synthesize placeholders for scans the import never mentioned.
	staged := make(map[string]bool, len(working))
	for _, line := range working {
		if line.TrackingNumber != "" {
			staged[line.TrackingNumber] = true
		}
	}
	for i := range pending {
		rec := &pending[i]
		if staged[rec.TrackingNumber] {
			continue
		}
		placeholder := staging.NewPlaceholderLine(rec)
		if err := s.lines.Insert(ctx, placeholder); err != nil {
			return nil, fmt.Errorf("failed to insert placeholder line: %w", err)
		}
		working = append(working, placeholder)
		byKey[placeholder.Key()] = placeholder
		result.Placeholders++
	}

	snapshot, err := s.loadSnapshot(ctx, storeID, working)
	if err != nil {
		return nil, err
	}

	before := make(map[uuid.UUID]staging.ReadinessStatus, len(working))
	for _, line := range working {
		before[line.ID] = line.Readiness
	}
	staging.DeriveReadiness(working, stages, snapshot)
	for _, line := range working {
		if line.Readiness != before[line.ID] {
			dirty = append(dirty, line)
		}
	}

	persisted := make(map[uuid.UUID]bool, len(dirty))
	for _, line := range dirty {
		if persisted[line.ID] {
			continue
		}
		persisted[line.ID] = true
		if err := s.lines.Update(ctx, line); err != nil {
			return nil, fmt.Errorf("failed to persist staged line: %w", err)
		}
	}

	sort.SliceStable(working, func(i, j int) bool {
		return working[i].CreatedAt.Before(working[j].CreatedAt)
	})
	result.Grid = make([]LineResponse, 0, len(working))
	for _, line := range working {
		result.Grid = append(result.Grid, ToLineResponse(line))
	}

	s.logger.Info("reconciliation complete",
		zap.String("store_id", storeID.String()),
		zap.Int("imported", len(result.Imported)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("placeholders", result.Placeholders))
	return result, nil
}

// attributeChannel resolves the channel and sub-store for one import line.
// Precedence: explicit operator override, then the scanned record's
// confirmed metadata, then a specialized label from the export, then the
// parser's layout guess, then the configured default.
func (s *Service) attributeChannel(il staging.ImportLine, rec *tracking.Record, guess string, opts Options) (string, string) {
	if opts.OverrideChannel {
		return opts.Channel, opts.SubStore
	}
	if rec != nil && rec.Channel != "" {
		return rec.Channel, rec.SubStore
	}
	if il.SpecialLabel != "" {
		return il.SpecialLabel, ""
	}
	if guess != "" {
		return guess, ""
	}
	return opts.DefaultChannel, ""
}

// matchLine resolves an import line against the working set. An exact
// natural-key hit wins; when the import carries no part identifier, a line
// whose part an operator has since assigned still matches on the remaining
// key fields, so a re-import does not fork it.
func matchLine(byKey map[staging.NaturalKey]*staging.Line, key staging.NaturalKey) (*staging.Line, bool) {
	if line, ok := byKey[key]; ok {
		return line, true
	}
	if key.PartIdentifier != "" {
		return nil, false
	}
	for k, line := range byKey {
		if k.TrackingNumber == key.TrackingNumber &&
			k.OrderID == key.OrderID &&
			k.SourceLabelName == key.SourceLabelName {
			return line, true
		}
	}
	return nil, false
}

func (s *Service) loadFulfilledSet(ctx context.Context, storeID uuid.UUID, importLines []staging.ImportLine) (ledger.MatchedSet, error) {
	trackingNumbers := make([]string, 0, len(importLines))
	orderIDs := make([]string, 0, len(importLines))
	for _, il := range importLines {
		if tn := tracking.NormalizeTrackingNumber(il.TrackingNumber); tn != "" {
			trackingNumbers = append(trackingNumbers, tn)
		}
		if il.OrderID != "" {
			orderIDs = append(orderIDs, il.OrderID)
		}
	}
	if len(trackingNumbers) == 0 && len(orderIDs) == 0 {
		return ledger.MatchedSet{}, nil
	}
	fulfilled, err := s.ledger.ExistsForTrackingOrOrder(ctx, storeID, trackingNumbers, orderIDs)
	if err != nil {
		return ledger.MatchedSet{}, fmt.Errorf("failed to query outbound ledger: %w", err)
	}
	return fulfilled, nil
}

func (s *Service) loadAliases(ctx context.Context, storeID uuid.UUID, importLines []staging.ImportLine) (map[string]string, error) {
	labels := make([]string, 0, len(importLines))
	seen := make(map[string]bool, len(importLines))
	for _, il := range importLines {
		if il.LineItemName == "" || seen[il.LineItemName] {
			continue
		}
		seen[il.LineItemName] = true
		labels = append(labels, il.LineItemName)
	}
	if len(labels) == 0 {
		return map[string]string{}, nil
	}
	aliasMap, err := s.aliases.FindMany(ctx, storeID, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve label aliases: %w", err)
	}
	return aliasMap, nil
}

func (s *Service) loadSnapshot(ctx context.Context, storeID uuid.UUID, working []*staging.Line) (catalog.Snapshot, error) {
	ids := make([]string, 0, len(working))
	seen := make(map[string]bool, len(working))
	for _, line := range working {
		if line.PartIdentifier == "" || seen[line.PartIdentifier] {
			continue
		}
		seen[line.PartIdentifier] = true
		ids = append(ids, line.PartIdentifier)
	}
	if len(ids) == 0 {
		return catalog.Snapshot{}, nil
	}
	snapshot, err := s.parts.LookupMany(ctx, storeID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog snapshot: %w", err)
	}
	return snapshot, nil
}

// Refresh recomputes readiness for the whole working set without merging
// an import, used after grid edits change part identifiers or quantities.
func (s *Service) Refresh(ctx context.Context, storeID uuid.UUID) (*Result, error) {
	return s.Reconcile(ctx, storeID, &staging.ParsedImport{}, Options{})
}

// Commit fulfills the selected staged lines one at a time. For each line it
// decrements catalog stock, appends an outbound ledger entry, records the
// label alias, removes the staged line and completes and removes the source
// tracking record. A failed line is reported and skipped; lines already
// committed stay committed.
func (s *Service) Commit(ctx context.Context, storeID uuid.UUID, lineIDs []uuid.UUID, operator string) (*CommitReport, error) {
	if operator == "" {
		return nil, shared.NewDomainError("INVALID_OPERATOR", "Operator name is required")
	}

	report := &CommitReport{Total: len(lineIDs)}
	for _, id := range lineIDs {
		report.add(s.commitOne(ctx, storeID, id, operator))
	}

	s.logger.Info("commit complete",
		zap.String("store_id", storeID.String()),
		zap.Int("total", report.Total),
		zap.Int("committed", report.Committed),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (s *Service) commitOne(ctx context.Context, storeID uuid.UUID, id uuid.UUID, operator string) CommitItemOutcome {
	line, err := s.lines.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return CommitItemOutcome{LineID: id, Status: CommitItemFailed, Reason: "line no longer exists"}
		}
		return CommitItemOutcome{LineID: id, Status: CommitItemFailed, Reason: err.Error()}
	}
	if line.StoreID != storeID {
		return CommitItemOutcome{LineID: id, Status: CommitItemFailed, Reason: "line belongs to another store"}
	}
	outcome := CommitItemOutcome{LineID: id, TrackingNumber: line.TrackingNumber}

	if !line.IsCommittable() {
		outcome.Status = CommitItemSkipped
		outcome.Reason = fmt.Sprintf("line is not committable: %s", line.Readiness)
		return outcome
	}

	// Stock is decremented first. If it fails nothing else happens and
	// the line stays in the grid for the next readiness pass.
	if err := s.parts.DecrementStock(ctx, storeID, line.PartIdentifier, line.QuantityRequested); err != nil {
		outcome.Status = CommitItemFailed
		outcome.Reason = fmt.Sprintf("stock decrement failed: %v", err)
		return outcome
	}

	entry, err := ledger.NewEntry(storeID, line.TrackingNumber, line.OrderID, line.PartIdentifier,
		line.QuantityRequested, line.TotalPrice, line.Customer, line.Channel, line.SubStore, operator)
	if err != nil {
		outcome.Status = CommitItemFailed
		outcome.Reason = err.Error()
		return outcome
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		outcome.Status = CommitItemFailed
		outcome.Reason = fmt.Sprintf("ledger append failed: %v", err)
		return outcome
	}

	if line.SourceLabelName != "" {
		alias := catalog.NewLabelAlias(storeID, line.SourceLabelName, line.PartIdentifier)
		if err := s.aliases.Save(ctx, alias); err != nil {
			s.logger.Warn("failed to record label alias",
				zap.String("label", line.SourceLabelName),
				zap.Error(err))
		}
	}

	if err := s.lines.Delete(ctx, line.ID); err != nil && !errors.Is(err, shared.ErrNotFound) {
		outcome.Status = CommitItemFailed
		outcome.Reason = fmt.Sprintf("failed to remove staged line: %v", err)
		return outcome
	}

	s.completeSourceRecord(ctx, storeID, line.TrackingNumber)

	outcome.Status = CommitItemCommitted
	return outcome
}

// completeSourceRecord marks the scanned record's final checkpoint and
// removes it from the pipeline. The ledger entry is the durable trace; a
// missing record here just means the line was staged without a scan.
func (s *Service) completeSourceRecord(ctx context.Context, storeID uuid.UUID, trackingNumber string) {
	if trackingNumber == "" {
		return
	}
	rec, err := s.records.FindByTrackingNumber(ctx, storeID, trackingNumber)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("failed to load source record after commit",
				zap.String("tracking_number", trackingNumber),
				zap.Error(err))
		}
		return
	}
	if err := rec.Complete(); err == nil {
		s.publishDomainEvents(ctx, rec)
	}
	if err := s.records.Delete(ctx, rec.ID); err != nil {
		s.logger.Warn("failed to remove completed record",
			zap.String("tracking_number", trackingNumber),
			zap.Error(err))
	}
}
