package persistence

import (
	"testing"

	"github.com/shiptrack/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDialector(t *testing.T) {
	t.Run("defaults to postgres", func(t *testing.T) {
		dialector, err := openDialector(&config.DatabaseConfig{
			Host: "localhost", Port: 5432, User: "shiptrack", DBName: "shiptrack",
		})
		require.NoError(t, err)
		assert.Equal(t, "postgres", dialector.Name())
	})

	t.Run("sqlite uses configured path", func(t *testing.T) {
		dialector, err := openDialector(&config.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: t.TempDir() + "/grid.db",
		})
		require.NoError(t, err)
		assert.Equal(t, "sqlite", dialector.Name())
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := openDialector(&config.DatabaseConfig{Driver: "oracle"})
		assert.ErrorContains(t, err, "unsupported database driver")
	})
}
