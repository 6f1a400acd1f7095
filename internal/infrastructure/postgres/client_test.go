package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/priority/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg, err := poolConfig(config.DatabaseConfig{
		URL:             "postgres://user:pw@db.internal:5433/priority?sslmode=disable",
		MaxOpenConns:    8,
		MaxIdleConns:    20,
		MaxConnLifetime: 30 * time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), cfg.ConnConfig.Port)
	assert.Equal(t, "priority", cfg.ConnConfig.Database)
	assert.Equal(t, int32(8), cfg.MaxConns)
	assert.Equal(t, int32(8), cfg.MinConns, "idle connections capped at the pool size")
	assert.Equal(t, 30*time.Minute, cfg.MaxConnLifetime)
}

func TestPoolConfigFromParts(t *testing.T) {
	cfg, err := poolConfig(config.DatabaseConfig{
		Host:    "localhost",
		Port:    "5432",
		Name:    "tasks",
		User:    "app",
		SSLMode: "disable",
	})
	require.NoError(t, err)
	assert.Equal(t, "tasks", cfg.ConnConfig.Database)
	assert.Equal(t, "app", cfg.ConnConfig.User)
}

func TestSourceURL(t *testing.T) {
	assert.Equal(t, "file://./assets/migrations", sourceURL("./assets/migrations"))
}

func TestRunMigrationsDisabled(t *testing.T) {
	assert.NoError(t, RunMigrations(nil, nil))
	assert.NoError(t, RunMigrations(&config.Config{}, nil))
}
