package collab

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/collab"
	"github.com/shiptrack/backend/internal/domain/staging"
)

// pendingEdit is a local field edit awaiting storage confirmation.
type pendingEdit struct {
	value string
	at    time.Time
}

// RowState is one grid row as a session sees it: the last authoritative
// snapshot plus the session's own unconfirmed edits layered on top.
//
// Merge precedence per field: the session's own pending edit, then a
// broadcast edit from another session, then the persisted snapshot. A
// persisted change confirms and clears pending edits whose value it
// carries; unconfirmed edits stay layered until their own write lands.
type RowState struct {
	snapshot collab.RowSnapshot
	pending  map[string]pendingEdit
}

// NewRowState starts from an authoritative snapshot.
func NewRowState(snapshot collab.RowSnapshot) *RowState {
	return &RowState{
		snapshot: snapshot,
		pending:  make(map[string]pendingEdit),
	}
}

// ApplyLocalEdit records the session's own edit. It always wins for its
// field until a persisted change confirms it.
func (r *RowState) ApplyLocalEdit(field, value string, at time.Time) {
	r.pending[field] = pendingEdit{value: value, at: at}
	setField(&r.snapshot, field, value)
}

// ApplyBroadcast merges an edit from another session. The local pending
// edit for the same field wins; everything else applies immediately so
// the other operator's keystrokes show up before their write confirms.
func (r *RowState) ApplyBroadcast(edit collab.CellEdit, selfUserID string) {
	if edit.OriginUserID == selfUserID {
		return
	}
	if _, dirty := r.pending[edit.Field]; dirty {
		return
	}
	setField(&r.snapshot, edit.Field, edit.Value)
}

// ApplyPersisted replaces the snapshot with the authoritative row, clears
// pending edits the store confirmed and re-layers the rest.
func (r *RowState) ApplyPersisted(row collab.RowSnapshot) {
	base := row
	for field, p := range r.pending {
		if getField(&base, field) == p.value {
			delete(r.pending, field)
			continue
		}
		setField(&base, field, p.value)
	}
	r.snapshot = base
}

// View returns the merged row.
func (r *RowState) View() collab.RowSnapshot {
	return r.snapshot
}

// Dirty reports whether any local edit is still unconfirmed.
func (r *RowState) Dirty() bool {
	return len(r.pending) > 0
}

// Grid field names carried on the wire.
const (
	FieldTrackingNumber    = "tracking_number"
	FieldOrderID           = "order_id"
	FieldCustomer          = "customer"
	FieldChannel           = "channel"
	FieldSubStore          = "sub_store"
	FieldPartIdentifier    = "part_identifier"
	FieldSourceLabelName   = "source_label_name"
	FieldQuantityRequested = "quantity_requested"
	FieldUnitPrice         = "unit_price"
	FieldTotalPrice        = "total_price"
	FieldCurrency          = "currency"
	FieldOverrideDuplicate = "override_duplicate"
)

func setField(s *collab.RowSnapshot, field, value string) {
	switch field {
	case FieldTrackingNumber:
		s.TrackingNumber = value
	case FieldOrderID:
		s.OrderID = value
	case FieldCustomer:
		s.Customer = value
	case FieldChannel:
		s.Channel = value
	case FieldSubStore:
		s.SubStore = value
	case FieldPartIdentifier:
		s.PartIdentifier = value
	case FieldSourceLabelName:
		s.SourceLabelName = value
	case FieldQuantityRequested:
		s.QuantityRequested = value
	case FieldUnitPrice:
		s.UnitPrice = value
	case FieldTotalPrice:
		s.TotalPrice = value
	case FieldCurrency:
		s.Currency = value
	case FieldOverrideDuplicate:
		s.OverrideDuplicate = value == "true"
	}
}

func getField(s *collab.RowSnapshot, field string) string {
	switch field {
	case FieldTrackingNumber:
		return s.TrackingNumber
	case FieldOrderID:
		return s.OrderID
	case FieldCustomer:
		return s.Customer
	case FieldChannel:
		return s.Channel
	case FieldSubStore:
		return s.SubStore
	case FieldPartIdentifier:
		return s.PartIdentifier
	case FieldSourceLabelName:
		return s.SourceLabelName
	case FieldQuantityRequested:
		return s.QuantityRequested
	case FieldUnitPrice:
		return s.UnitPrice
	case FieldTotalPrice:
		return s.TotalPrice
	case FieldCurrency:
		return s.Currency
	case FieldOverrideDuplicate:
		if s.OverrideDuplicate {
			return "true"
		}
		return "false"
	}
	return ""
}

// GridState is a session's view of the whole grid. Rows inserted locally
// get a transient ID until the persisted-change channel announces the
// authoritative one, at which point the row is re-keyed in place.
type GridState struct {
	mu        sync.Mutex
	selfUser  string
	rows      map[uuid.UUID]*RowState
	transient map[staging.NaturalKey]uuid.UUID
}

// NewGridState creates an empty grid view for a session.
func NewGridState(selfUserID string) *GridState {
	return &GridState{
		selfUser:  selfUserID,
		rows:      make(map[uuid.UUID]*RowState),
		transient: make(map[staging.NaturalKey]uuid.UUID),
	}
}

// Load replaces the grid with an authoritative row set.
func (g *GridState) Load(rows []collab.RowSnapshot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows = make(map[uuid.UUID]*RowState, len(rows))
	g.transient = make(map[staging.NaturalKey]uuid.UUID)
	for _, row := range rows {
		g.rows[row.ID] = NewRowState(row)
	}
}

// InsertTransient adds a locally created row under a temporary ID and
// remembers its natural key so the authoritative insert can claim it.
func (g *GridState) InsertTransient(row collab.RowSnapshot, key staging.NaturalKey) uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	tempID := uuid.New()
	row.ID = tempID
	g.rows[tempID] = NewRowState(row)
	g.transient[key] = tempID
	return tempID
}

// Apply merges one grid event into the view.
func (g *GridState) Apply(event collab.GridEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch event.Kind {
	case collab.KindCellEdit:
		if row, ok := g.rows[event.Edit.RowID]; ok {
			row.ApplyBroadcast(*event.Edit, g.selfUser)
		}
	case collab.KindRowInserted:
		g.applyInsert(event.Change)
	case collab.KindRowUpdated:
		if event.Change.NewRow == nil {
			return
		}
		if row, ok := g.rows[event.Change.RowID]; ok {
			row.ApplyPersisted(*event.Change.NewRow)
		} else {
			g.rows[event.Change.RowID] = NewRowState(*event.Change.NewRow)
		}
	case collab.KindRowDeleted:
		delete(g.rows, event.Change.RowID)
	case collab.KindPresence:
		// Presence is roster state, not grid state.
	}
}

// applyInsert re-keys a matching transient row to the authoritative ID,
// keeping any pending edits; an unmatched insert is a new row from another
// session.
func (g *GridState) applyInsert(change *collab.RowChange) {
	if change.NewRow == nil {
		return
	}
	if tempID, ok := g.transient[change.NaturalKey]; ok {
		row := g.rows[tempID]
		delete(g.rows, tempID)
		delete(g.transient, change.NaturalKey)
		row.ApplyPersisted(*change.NewRow)
		g.rows[change.RowID] = row
		return
	}
	g.rows[change.RowID] = NewRowState(*change.NewRow)
}

// Row returns the merged view of one row.
func (g *GridState) Row(id uuid.UUID) (collab.RowSnapshot, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	row, ok := g.rows[id]
	if !ok {
		return collab.RowSnapshot{}, false
	}
	return row.View(), true
}

// EditLocal records the session's own edit on a row.
func (g *GridState) EditLocal(rowID uuid.UUID, field, value string, at time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	row, ok := g.rows[rowID]
	if !ok {
		return false
	}
	row.ApplyLocalEdit(field, value, at)
	return true
}

// Len returns the number of rows in the view.
func (g *GridState) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rows)
}
