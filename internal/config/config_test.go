package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: "9090"
  allowed_origins: ["http://localhost:5173"]
jwt:
  secret: from-file
  token_expiration: 2h
admin:
  login_id: admin
  password: admin123
receipts:
  prefix: RC
  base: 5000
sync:
  refresh_timeout: 20s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_FileOverDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "RC", cfg.Receipts.Prefix)
	assert.Equal(t, int64(5000), cfg.Receipts.Base)
	assert.Equal(t, 20*time.Second, cfg.Sync.RefreshTimeout)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL())

	// untouched defaults
	assert.Equal(t, "edupay", cfg.Database.DBName)
	assert.Equal(t, 10*time.Second, cfg.Sync.StoreCallTimeout)
	assert.Equal(t, int64(1024*1024), cfg.Server.MaxLogoBytes)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("SYNC_STORE_CALL_TIMEOUT", "3s")
	t.Setenv("RECEIPT_BASE", "7000")

	cfg, err := LoadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.Sync.StoreCallTimeout)
	assert.Equal(t, int64(7000), cfg.Receipts.Base)
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("ADMIN_PASSWORD", "p")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "admin", cfg.Admin.LoginID)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "no jwt secret", env: map[string]string{"ADMIN_PASSWORD": "p"}},
		{name: "no admin password", env: map[string]string{"JWT_SECRET": "s"}},
		{name: "bad token expiration", env: map[string]string{"JWT_SECRET": "s", "ADMIN_PASSWORD": "p", "JWT_TOKEN_EXPIRATION": "soon"}},
		{name: "bad duration", env: map[string]string{"JWT_SECRET": "s", "ADMIN_PASSWORD": "p", "SYNC_REFRESH_TIMEOUT": "fast"}},
		{name: "zero timeout", env: map[string]string{"JWT_SECRET": "s", "ADMIN_PASSWORD": "p", "SYNC_REFRESH_TIMEOUT": "0s"}},
		{name: "empty receipt prefix", env: map[string]string{"JWT_SECRET": "s", "ADMIN_PASSWORD": "p", "RECEIPT_PREFIX": " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
			assert.Error(t, err)
		})
	}
}

func TestGetPostgresConnectionString(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.Database.Password = "pw"
	assert.Equal(t, "postgres://postgres:pw@localhost:5432/edupay?sslmode=disable", cfg.GetPostgresConnectionString())
}
