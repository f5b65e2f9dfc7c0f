package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/portal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, int64(5<<20), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
http_port: "9090"
database_url: postgres://file/portal
upload_dir: /var/lib/portal
db_conn_max_lifetime: 5m
cors_origins:
  - https://careers.example.com
`), 0o600)
	require.NoError(t, err)

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "postgres://env/portal")
	t.Setenv("RATE_LIMIT_BURST", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "postgres://env/portal", cfg.DatabaseURL)
	assert.Equal(t, "/var/lib/portal", cfg.UploadDir)
	assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLife)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://careers.example.com"}, cfg.CORSOrigins)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/portal")
	t.Setenv("MAX_UPLOAD_BYTES", "five megs")

	_, err := Load()
	assert.ErrorContains(t, err, "MAX_UPLOAD_BYTES")
}

func TestLoadSplitsCORSOrigins(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/portal")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}
