package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("VENUE_TIMEZONE", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_TX_TIMEOUT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.UTC, cfg.Venue)
	assert.Equal(t, 5*time.Second, cfg.DBTxTimeout)
	assert.Equal(t, "ticket.events", cfg.AMQP.Queue)
}

func TestLoad_MySQLRequiresDatabase(t *testing.T) {
	t.Setenv("STORAGE", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DB_USER=cinema\nDB_HOST=db\nDB_NAME=tickets\nDB_TX_TIMEOUT=2s\n"), 0o600))
	t.Setenv("STORAGE", "mysql")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_TX_TIMEOUT", "")
	t.Setenv("DB_PORT", "")
	// godotenv does not override variables that are already set
	os.Unsetenv("DB_USER")
	os.Unsetenv("DB_HOST")
	os.Unsetenv("DB_NAME")
	os.Unsetenv("DB_TX_TIMEOUT")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cinema", cfg.DBUser)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 2*time.Second, cfg.DBTxTimeout)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("STORAGE", "postgres")
	t.Setenv("VENUE_TIMEZONE", "Mars/Olympus")
	t.Setenv("DB_TX_TIMEOUT", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE")
	assert.Contains(t, err.Error(), "VENUE_TIMEZONE")
	assert.Contains(t, err.Error(), "DB_TX_TIMEOUT")
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	c := LoadRateLimitConfig()
	assert.Equal(t, 1, c.Capacity)
	assert.Equal(t, 5*time.Minute, c.TTL)
}
