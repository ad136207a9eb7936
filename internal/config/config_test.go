package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8081
database:
  url: postgres://file
jwt:
  secret: from-file
  ttl: 30
payment:
  mock: true
`), 0o644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("PAYMENT_GATEWAY_MOCK", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "postgres://env", cfg.Database.DSN, "env overrides file")
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL())
	// значения по умолчанию сохраняются для незаданных секций
	assert.Equal(t, int64(10*1024*1024), cfg.Upload.DeliverableMaxSize)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.AttachmentMaxSize)
	assert.Equal(t, "database", cfg.Tracking.Backend)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.Validate())

	cfg.Database.DSN = "postgres://x"
	cfg.JWT.Secret = "s"
	assert.Error(t, cfg.Validate(), "real gateway needs an access token")

	cfg.Payment.Mock = true
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Type = "s3"
	assert.Error(t, cfg.Validate())
}
