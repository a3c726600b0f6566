package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: test-service\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-service", cfg.App.Name)
	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, 15000, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 2000, cfg.Sinks.Timeout)
	assert.Equal(t, "activities:enrollments", cfg.Sinks.RedisEvents.Channel)
	assert.Equal(t, 100, cfg.Sinks.RedisEvents.RecentLimit)
	assert.Equal(t, "enrollment_audit", cfg.Sinks.PostgresAudit.Table)
	assert.False(t, cfg.Sinks.Email.Enabled)
	assert.Empty(t, cfg.Seed.Path)
}

func TestLoadFromFile_Values(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9090"
  static_dir: ./static
seed:
  path: configs/activities.json
logging:
  level: debug
  format: console
database:
  redis:
    address: localhost:6379
sinks:
  timeout: 500
  redis_events:
    enabled: true
    recent_limit: 5
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "./static", cfg.Server.StaticDir)
	assert.Equal(t, "configs/activities.json", cfg.Seed.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.Sinks.RedisEvents.Enabled)
	assert.Equal(t, 5, cfg.Sinks.RedisEvents.RecentLimit)
	assert.Equal(t, 500*time.Millisecond, GetDuration(cfg.Sinks.Timeout))
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", ":7777")
	t.Setenv("SEED_PATH", "/tmp/seed.yaml")
	path := writeConfig(t, "server:\n  address: \":9090\"\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Address)
	assert.Equal(t, "/tmp/seed.yaml", cfg.Seed.Path)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")
	path := writeConfig(t, "database:\n  postgres:\n    password: ${TEST_PG_PASSWORD}\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "postgres audit without host",
			body:    "sinks:\n  postgres_audit:\n    enabled: true\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "redis events without address",
			body:    "sinks:\n  redis_events:\n    enabled: true\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "email without sender",
			body:    "sinks:\n  email:\n    enabled: true\n    region: eu-west-1\n",
			wantErr: "sinks.email.from_email is required",
		},
		{
			name:    "email without region",
			body:    "sinks:\n  email:\n    enabled: true\n    from_email: office@mergington.edu\n",
			wantErr: "sinks.email.region is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	dsn := PostgresConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", Database: "activities", SSLMode: "disable",
	}.GetDSN()
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=activities sslmode=disable", dsn)
}
