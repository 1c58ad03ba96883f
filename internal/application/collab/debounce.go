package collab

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/staging"
	"go.uber.org/zap"
)

// Debouncer coalesces rapid grid edits into one storage write per row.
// Each edit restarts the row's timer; the accumulated field patch is
// written when the timer fires or when Flush forces everything out, e.g.
// before a commit or on session close.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	lines    staging.LineRepository
	pending  map[uuid.UUID]map[string]interface{}
	timers   map[uuid.UUID]*time.Timer
	logger   *zap.Logger
}

// NewDebouncer creates a debouncer writing through the given repository.
func NewDebouncer(lines staging.LineRepository, interval time.Duration, logger *zap.Logger) *Debouncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debouncer{
		interval: interval,
		lines:    lines,
		pending:  make(map[uuid.UUID]map[string]interface{}),
		timers:   make(map[uuid.UUID]*time.Timer),
		logger:   logger,
	}
}

// Schedule queues field patches for a row and restarts its write timer.
// A later edit to the same field before the timer fires replaces the
// queued value.
func (d *Debouncer) Schedule(rowID uuid.UUID, fields map[string]interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	patch, ok := d.pending[rowID]
	if !ok {
		patch = make(map[string]interface{}, len(fields))
		d.pending[rowID] = patch
	}
	for k, v := range fields {
		patch[k] = v
	}
	if timer, ok := d.timers[rowID]; ok {
		timer.Stop()
	}
	d.timers[rowID] = time.AfterFunc(d.interval, func() {
		d.flushRow(context.Background(), rowID)
	})
}

// Flush writes every queued patch immediately. The first write error is
// returned; remaining rows are still flushed.
func (d *Debouncer) Flush(ctx context.Context) error {
	d.mu.Lock()
	ids := make([]uuid.UUID, 0, len(d.pending))
	for id := range d.pending {
		ids = append(ids, id)
	}
	d.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := d.flushRow(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Pending reports how many rows have unwritten patches.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Drop discards the queued patch for a row, used when the row is deleted
// before its write fires.
func (d *Debouncer) Drop(rowID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dropLocked(rowID)
}

func (d *Debouncer) dropLocked(rowID uuid.UUID) {
	if timer, ok := d.timers[rowID]; ok {
		timer.Stop()
		delete(d.timers, rowID)
	}
	delete(d.pending, rowID)
}

func (d *Debouncer) flushRow(ctx context.Context, rowID uuid.UUID) error {
	d.mu.Lock()
	patch, ok := d.pending[rowID]
	if ok {
		d.dropLocked(rowID)
	}
	d.mu.Unlock()
	if !ok || len(patch) == 0 {
		return nil
	}
	if err := d.lines.UpdateFields(ctx, rowID, patch); err != nil {
		d.requeue(rowID, patch)
		d.logger.Warn("debounced grid write failed, patch kept for next flush",
			zap.String("row_id", rowID.String()),
			zap.Error(err))
		return err
	}
	return nil
}

// requeue puts a failed patch back so the next flush retries it. Fields
// edited again while the write was in flight keep their newer value.
func (d *Debouncer) requeue(rowID uuid.UUID, patch map[string]interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	newer, ok := d.pending[rowID]
	if !ok {
		d.pending[rowID] = patch
		return
	}
	for k, v := range patch {
		if _, edited := newer[k]; !edited {
			newer[k] = v
		}
	}
}
