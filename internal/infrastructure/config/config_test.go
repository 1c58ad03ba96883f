package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"SHIPTRACK_APP_NAME":                os.Getenv("SHIPTRACK_APP_NAME"),
		"SHIPTRACK_APP_ENV":                 os.Getenv("SHIPTRACK_APP_ENV"),
		"SHIPTRACK_APP_PORT":                os.Getenv("SHIPTRACK_APP_PORT"),
		"SHIPTRACK_DATABASE_DRIVER":         os.Getenv("SHIPTRACK_DATABASE_DRIVER"),
		"SHIPTRACK_DATABASE_HOST":           os.Getenv("SHIPTRACK_DATABASE_HOST"),
		"SHIPTRACK_DATABASE_PORT":           os.Getenv("SHIPTRACK_DATABASE_PORT"),
		"SHIPTRACK_DATABASE_USER":           os.Getenv("SHIPTRACK_DATABASE_USER"),
		"SHIPTRACK_DATABASE_PASSWORD":       os.Getenv("SHIPTRACK_DATABASE_PASSWORD"),
		"SHIPTRACK_DATABASE_DBNAME":         os.Getenv("SHIPTRACK_DATABASE_DBNAME"),
		"SHIPTRACK_DATABASE_SSLMODE":        os.Getenv("SHIPTRACK_DATABASE_SSLMODE"),
		"SHIPTRACK_DATABASE_MAX_OPEN_CONNS": os.Getenv("SHIPTRACK_DATABASE_MAX_OPEN_CONNS"),
		"SHIPTRACK_DATABASE_MAX_IDLE_CONNS": os.Getenv("SHIPTRACK_DATABASE_MAX_IDLE_CONNS"),
		"SHIPTRACK_SYNC_WRITE_DEBOUNCE":     os.Getenv("SHIPTRACK_SYNC_WRITE_DEBOUNCE"),
		"SHIPTRACK_IMPORT_DEFAULT_CHANNEL":  os.Getenv("SHIPTRACK_IMPORT_DEFAULT_CHANNEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "shiptrack-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "shiptrack", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 800*time.Millisecond, cfg.Sync.WriteDebounce)
		assert.Equal(t, 30*time.Second, cfg.Sync.PresenceTTL)
		assert.Equal(t, "other", cfg.Import.DefaultChannel)
	})

	t.Run("loads values from environment variables with SHIPTRACK prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPTRACK_APP_NAME", "test-app")
		os.Setenv("SHIPTRACK_APP_ENV", "testing")
		os.Setenv("SHIPTRACK_APP_PORT", "9000")
		os.Setenv("SHIPTRACK_DATABASE_HOST", "testdb.local")
		os.Setenv("SHIPTRACK_DATABASE_PORT", "5433")
		os.Setenv("SHIPTRACK_DATABASE_USER", "testuser")
		os.Setenv("SHIPTRACK_DATABASE_PASSWORD", "testpass")
		os.Setenv("SHIPTRACK_DATABASE_DBNAME", "testdb")
		os.Setenv("SHIPTRACK_DATABASE_SSLMODE", "require")
		os.Setenv("SHIPTRACK_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("SHIPTRACK_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("SHIPTRACK_SYNC_WRITE_DEBOUNCE", "250ms")
		os.Setenv("SHIPTRACK_IMPORT_DEFAULT_CHANNEL", "manual")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 250*time.Millisecond, cfg.Sync.WriteDebounce)
		assert.Equal(t, "manual", cfg.Import.DefaultChannel)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPTRACK_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("SHIPTRACK_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPTRACK_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPTRACK_DATABASE_DRIVER", "oracle")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("production requires database password and TLS", func(t *testing.T) {
		clearEnv()
		os.Setenv("SHIPTRACK_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")

		os.Setenv("SHIPTRACK_DATABASE_PASSWORD", "secret")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")

		os.Setenv("SHIPTRACK_DATABASE_SSLMODE", "require")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "app",
		Password: "p@ss/word",
		DBName:   "shiptrack",
		SSLMode:  "require",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters must be escaped, not passed through raw
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.internal", Port: 6380}
	assert.Equal(t, "cache.internal:6380", r.Addr())
}
