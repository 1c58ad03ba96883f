package tracking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shiptrack/backend/internal/domain/tracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRegistry(t *testing.T) {
	newSnapshot := func(tn string) tracking.Record {
		r, err := tracking.NewRecord(uuid.New(), tn, "taobao", "", "alice")
		require.NoError(t, err)
		return r.Snapshot()
	}

	t.Run("push and pop are LIFO", func(t *testing.T) {
		reg := NewUndoRegistry()
		reg.Push("s1", newSnapshot("A1"))
		reg.Push("s1", newSnapshot("B1"))

		first, err := reg.Pop("s1")
		require.NoError(t, err)
		second, err := reg.Pop("s1")
		require.NoError(t, err)

		assert.Equal(t, "B1", first.TrackingNumber)
		assert.Equal(t, "A1", second.TrackingNumber)
	})

	t.Run("pop on empty stack fails", func(t *testing.T) {
		reg := NewUndoRegistry()

		_, err := reg.Pop("s1")

		assert.ErrorIs(t, err, shared.ErrEmptyUndoStack)
	})

	t.Run("depth tracks per session", func(t *testing.T) {
		reg := NewUndoRegistry()
		reg.Push("s1", newSnapshot("A1"))
		reg.Push("s2", newSnapshot("B1"))
		reg.Push("s2", newSnapshot("C1"))

		assert.Equal(t, 1, reg.Depth("s1"))
		assert.Equal(t, 2, reg.Depth("s2"))
	})

	t.Run("drop discards a session stack", func(t *testing.T) {
		reg := NewUndoRegistry()
		reg.Push("s1", newSnapshot("A1"))

		reg.Drop("s1")

		_, err := reg.Pop("s1")
		assert.ErrorIs(t, err, shared.ErrEmptyUndoStack)
	})
}
