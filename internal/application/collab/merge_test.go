package collab

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/collab"
	"github.com/shiptrack/backend/internal/domain/staging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(id uuid.UUID) collab.RowSnapshot {
	return collab.RowSnapshot{
		ID:             id,
		TrackingNumber: "SF100",
		OrderID:        "ORD-1",
		Customer:       "customer-a",
		Currency:       "CNY",
	}
}

func TestRowStateLocalEditWinsOverBroadcast(t *testing.T) {
	row := NewRowState(snapshot(uuid.New()))
	row.ApplyLocalEdit(FieldCustomer, "mine", time.Now())

	row.ApplyBroadcast(collab.CellEdit{
		Field:        FieldCustomer,
		Value:        "theirs",
		OriginUserID: "other-user",
	}, "self-user")

	assert.Equal(t, "mine", row.View().Customer)
	assert.True(t, row.Dirty())
}

func TestRowStateBroadcastAppliesToCleanField(t *testing.T) {
	row := NewRowState(snapshot(uuid.New()))
	row.ApplyBroadcast(collab.CellEdit{
		Field:        FieldChannel,
		Value:        "taobao",
		OriginUserID: "other-user",
	}, "self-user")
	assert.Equal(t, "taobao", row.View().Channel)

	// Own broadcasts echo back from the transport and must not reapply.
	row.ApplyLocalEdit(FieldChannel, "douyin", time.Now())
	row.ApplyBroadcast(collab.CellEdit{
		Field:        FieldChannel,
		Value:        "douyin",
		OriginUserID: "self-user",
	}, "self-user")
	assert.Equal(t, "douyin", row.View().Channel)
}

func TestRowStatePersistedConfirmsAndRelayers(t *testing.T) {
	id := uuid.New()
	row := NewRowState(snapshot(id))
	row.ApplyLocalEdit(FieldCustomer, "mine", time.Now())
	row.ApplyLocalEdit(FieldChannel, "douyin", time.Now())

	// The store confirmed the customer edit but not yet the channel one.
	persisted := snapshot(id)
	persisted.Customer = "mine"
	persisted.SubStore = "north"
	row.ApplyPersisted(persisted)

	view := row.View()
	assert.Equal(t, "mine", view.Customer)
	assert.Equal(t, "douyin", view.Channel, "unconfirmed local edit stays layered")
	assert.Equal(t, "north", view.SubStore, "authoritative fields apply")
	assert.True(t, row.Dirty())

	persisted.Channel = "douyin"
	row.ApplyPersisted(persisted)
	assert.False(t, row.Dirty())
}

func TestGridStateTransientRowAdoptsAuthoritativeID(t *testing.T) {
	g := NewGridState("self-user")
	key := staging.NaturalKey{TrackingNumber: "SF200", OrderID: "ORD-2"}
	tempID := g.InsertTransient(collab.RowSnapshot{TrackingNumber: "SF200", OrderID: "ORD-2"}, key)
	g.EditLocal(tempID, FieldCustomer, "mine", time.Now())

	realID := uuid.New()
	authoritative := collab.RowSnapshot{ID: realID, TrackingNumber: "SF200", OrderID: "ORD-2"}
	g.Apply(collab.NewRowChangeEvent(collab.KindRowInserted, uuid.New(), collab.RowChange{
		RowID:      realID,
		NaturalKey: key,
		NewRow:     &authoritative,
	}))

	_, ok := g.Row(tempID)
	assert.False(t, ok, "transient ID is gone")
	row, ok := g.Row(realID)
	require.True(t, ok)
	assert.Equal(t, "mine", row.Customer, "pending edit survives the re-key")
	assert.Equal(t, 1, g.Len())
}

func TestGridStateAppliesRowLifecycle(t *testing.T) {
	g := NewGridState("self-user")
	id := uuid.New()
	storeID := uuid.New()
	row := snapshot(id)

	g.Apply(collab.NewRowChangeEvent(collab.KindRowInserted, storeID, collab.RowChange{RowID: id, NewRow: &row}))
	assert.Equal(t, 1, g.Len())

	updated := row
	updated.Customer = "renamed"
	g.Apply(collab.NewRowChangeEvent(collab.KindRowUpdated, storeID, collab.RowChange{RowID: id, NewRow: &updated}))
	got, ok := g.Row(id)
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Customer)

	g.Apply(collab.NewRowChangeEvent(collab.KindRowDeleted, storeID, collab.RowChange{RowID: id}))
	assert.Equal(t, 0, g.Len())
}
