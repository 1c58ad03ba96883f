package tracking

import (
	"sync"

	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/tracking"
)

// UndoRegistry keeps a per-session stack of deleted record snapshots.
// Stacks live only in memory: closing the session forfeits its undo
// history, matching the session-local semantics operators expect from a
// keyboard shortcut.
type UndoRegistry struct {
	mu     sync.Mutex
	stacks map[string][]tracking.Record
}

// NewUndoRegistry creates an empty registry.
func NewUndoRegistry() *UndoRegistry {
	return &UndoRegistry{stacks: make(map[string][]tracking.Record)}
}

// Push records a pre-delete snapshot for a session.
func (u *UndoRegistry) Push(sessionID string, snapshot tracking.Record) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stacks[sessionID] = append(u.stacks[sessionID], snapshot)
}

// Pop removes and returns the most recent snapshot for a session.
// Fails with ErrEmptyUndoStack when there is nothing to undo.
func (u *UndoRegistry) Pop(sessionID string) (tracking.Record, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	stack := u.stacks[sessionID]
	if len(stack) == 0 {
		return tracking.Record{}, shared.ErrEmptyUndoStack
	}
	snapshot := stack[len(stack)-1]
	u.stacks[sessionID] = stack[:len(stack)-1]
	return snapshot, nil
}

// Depth returns the number of snapshots a session could undo.
func (u *UndoRegistry) Depth(sessionID string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.stacks[sessionID])
}

// Drop discards a session's stack, typically on session close.
func (u *UndoRegistry) Drop(sessionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.stacks, sessionID)
}
