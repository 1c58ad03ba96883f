package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkDuplicates(t *testing.T) {
	t.Run("first occurrence is never flagged", func(t *testing.T) {
		entries := MarkDuplicates([]string{"X1", "X1", "X2"})

		require.Len(t, entries, 3)
		assert.False(t, entries[0].Duplicate)
		assert.True(t, entries[1].Duplicate)
		assert.False(t, entries[2].Duplicate)
	})

	t.Run("compares normalized keys", func(t *testing.T) {
		entries := MarkDuplicates([]string{"abc123", " ABC123 ", "ABC123"})

		assert.False(t, entries[0].Duplicate)
		assert.True(t, entries[1].Duplicate)
		assert.True(t, entries[2].Duplicate)
		assert.Equal(t, "ABC123", entries[1].Normalized)
		assert.Equal(t, " ABC123 ", entries[1].Raw)
	})

	t.Run("preserves batch order and indices", func(t *testing.T) {
		entries := MarkDuplicates([]string{"A", "B", "A", "C", "B"})

		for i, e := range entries {
			assert.Equal(t, i, e.Index)
		}
		assert.Equal(t, []bool{false, false, true, false, true}, []bool{
			entries[0].Duplicate, entries[1].Duplicate, entries[2].Duplicate,
			entries[3].Duplicate, entries[4].Duplicate,
		})
	})

	t.Run("empty batch", func(t *testing.T) {
		assert.Empty(t, MarkDuplicates(nil))
	})
}
