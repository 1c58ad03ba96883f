package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shiptrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartRepositoryDecrementStock(t *testing.T) {
	storeID := uuid.New()
	qty := decimal.NewFromInt(2)

	t.Run("decrements when stock suffices", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPartRepository(gormDB)

		mock.ExpectExec(`UPDATE "catalog_parts" SET "quantity_on_hand"=quantity_on_hand - \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DecrementStock(context.Background(), storeID, "BRK-001", qty))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("shortfall leaves stock untouched", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPartRepository(gormDB)

		mock.ExpectExec(`UPDATE "catalog_parts" SET "quantity_on_hand"=quantity_on_hand - \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "catalog_parts"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := repo.DecrementStock(context.Background(), storeID, "BRK-001", qty)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing part is not found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPartRepository(gormDB)

		mock.ExpectExec(`UPDATE "catalog_parts" SET "quantity_on_hand"=quantity_on_hand - \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "catalog_parts"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := repo.DecrementStock(context.Background(), storeID, "NOPE-404", qty)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPartRepositoryLookupMany(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormPartRepository(gormDB)

	storeID := uuid.New()

	t.Run("unknown identifiers are absent", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"part_identifier", "name", "brand", "application", "quantity_on_hand", "store_id"}).
			AddRow("BRK-001", "Brake pad set", "Brembo", "Model 3", "5", storeID)
		mock.ExpectQuery(`SELECT \* FROM "catalog_parts" WHERE store_id = \$1 AND part_identifier IN \(\$2,\$3\)`).
			WithArgs(storeID, "BRK-001", "NOPE-404").
			WillReturnRows(rows)

		snapshot, err := repo.LookupMany(context.Background(), storeID, []string{"BRK-001", "NOPE-404"})
		require.NoError(t, err)
		require.Len(t, snapshot, 1)
		part, ok := snapshot["BRK-001"]
		require.True(t, ok)
		assert.Equal(t, "Brake pad set", part.Name)
		assert.True(t, part.QuantityOnHand.Equal(decimal.NewFromInt(5)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input skips the query", func(t *testing.T) {
		snapshot, err := repo.LookupMany(context.Background(), storeID, nil)
		require.NoError(t, err)
		assert.Empty(t, snapshot)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
