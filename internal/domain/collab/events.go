package collab

import (
	"time"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/staging"
)

// EventKind tags a grid event. Every event carries exactly one variant
// matching its kind, so receivers can switch on the tag exhaustively
// instead of sniffing loosely-typed payloads.
type EventKind string

const (
	// KindCellEdit is the broadcast channel: a local field edit sent
	// before write confirmation.
	KindCellEdit EventKind = "cell_edit"
	// KindPresence is the presence channel: a periodic announcement of
	// who is where in the grid.
	KindPresence EventKind = "presence"
	// KindRowInserted, KindRowUpdated and KindRowDeleted are the
	// persisted-change channel: authoritative record store
	// notifications.
	KindRowInserted EventKind = "row_inserted"
	KindRowUpdated  EventKind = "row_updated"
	KindRowDeleted  EventKind = "row_deleted"
)

// CellEdit is one field edit broadcast to other operators the moment it is
// applied locally, ahead of storage confirmation.
type CellEdit struct {
	RowID        uuid.UUID `json:"row_id"`
	Field        string    `json:"field"`
	Value        string    `json:"value"`
	OriginUserID string    `json:"origin_user_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// PresenceEntry announces an operator session: identity, claimed cell and
// cursor position. The roster keeps the latest entry per user.
type PresenceEntry struct {
	UserID        string    `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	ColorTag      string    `json:"color_tag"`
	ActiveCellKey string    `json:"active_cell_key"`
	CursorRow     int       `json:"cursor_row"`
	CursorCol     int       `json:"cursor_col"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

// RowChange is an authoritative record store notification. NewRow is set
// for inserts and updates, nil for deletes. The natural key lets receivers
// splice an insert into a matching row they created locally but had not
// yet persisted.
type RowChange struct {
	RowID      uuid.UUID          `json:"row_id"`
	NaturalKey staging.NaturalKey `json:"natural_key"`
	NewRow     *RowSnapshot       `json:"new_row,omitempty"`
}

// RowSnapshot is the wire form of a staged line carried on the
// persisted-change channel.
type RowSnapshot struct {
	ID                uuid.UUID `json:"id"`
	TrackingNumber    string    `json:"tracking_number"`
	OrderID           string    `json:"order_id"`
	Customer          string    `json:"customer"`
	Channel           string    `json:"channel"`
	SubStore          string    `json:"sub_store"`
	PartIdentifier    string    `json:"part_identifier"`
	SourceLabelName   string    `json:"source_label_name"`
	QuantityRequested string    `json:"quantity_requested"`
	UnitPrice         string    `json:"unit_price"`
	TotalPrice        string    `json:"total_price"`
	Currency          string    `json:"currency"`
	Readiness         string    `json:"readiness"`
	OverrideDuplicate bool      `json:"override_duplicate"`
}

// SnapshotOf converts a staged line into its wire form.
func SnapshotOf(line *staging.Line) *RowSnapshot {
	return &RowSnapshot{
		ID:                line.ID,
		TrackingNumber:    line.TrackingNumber,
		OrderID:           line.OrderID,
		Customer:          line.Customer,
		Channel:           line.Channel,
		SubStore:          line.SubStore,
		PartIdentifier:    line.PartIdentifier,
		SourceLabelName:   line.SourceLabelName,
		QuantityRequested: line.QuantityRequested.String(),
		UnitPrice:         line.UnitPrice.String(),
		TotalPrice:        line.TotalPrice.String(),
		Currency:          line.Currency,
		Readiness:         string(line.Readiness),
		OverrideDuplicate: line.OverrideDuplicate,
	}
}

// GridEvent is the envelope published on the synchronizer channels.
// Exactly one variant field is non-nil, matching Kind.
type GridEvent struct {
	Kind     EventKind      `json:"kind"`
	StoreID  uuid.UUID      `json:"store_id"`
	Edit     *CellEdit      `json:"edit,omitempty"`
	Presence *PresenceEntry `json:"presence,omitempty"`
	Change   *RowChange     `json:"change,omitempty"`
}

// NewCellEditEvent wraps a cell edit in its envelope.
func NewCellEditEvent(storeID uuid.UUID, edit CellEdit) GridEvent {
	return GridEvent{Kind: KindCellEdit, StoreID: storeID, Edit: &edit}
}

// NewPresenceEvent wraps a presence announcement in its envelope.
func NewPresenceEvent(storeID uuid.UUID, entry PresenceEntry) GridEvent {
	return GridEvent{Kind: KindPresence, StoreID: storeID, Presence: &entry}
}

// NewRowChangeEvent wraps a persisted-change notification in its envelope.
func NewRowChangeEvent(kind EventKind, storeID uuid.UUID, change RowChange) GridEvent {
	return GridEvent{Kind: kind, StoreID: storeID, Change: &change}
}
