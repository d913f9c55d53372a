//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadConfig_YAMLAndDefaults(t *testing.T) {
	p := writeYAML(t, `
database:
  driver: Memory
ledger:
  owner_account: owner.near
auth:
  jwt_secret: s3cret
`)
	cfg, err := LoadConfig(p, false)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "owner.near", cfg.Ledger.OwnerAccount)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2*time.Second, cfg.Ledger.LockWait)
	assert.Equal(t, 5*time.Second, cfg.Ledger.LockTTL)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.Runtime.Dev)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	p := writeYAML(t, `
http:
  port: 9000
database:
  driver: memory
ledger:
  owner_account: owner.near
auth:
  jwt_secret: s3cret
`)
	t.Setenv("LEDGER_HTTP_PORT", "9100")
	t.Setenv("LEDGER_LEDGER_LOCK_WAIT", "500ms")
	t.Setenv("LEDGER_HTTP_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig(p, false)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.HTTP.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Ledger.LockWait)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("LEDGER_DATABASE_DRIVER", "memory")
	t.Setenv("LEDGER_LEDGER_OWNER_ACCOUNT", "owner.near")
	t.Setenv("LEDGER_AUTH_DEV_HEADER", "true")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.NoError(t, err)
	assert.True(t, cfg.Runtime.Dev)
	assert.True(t, cfg.Auth.DevHeader)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	p := writeYAML(t, "http: [")
	_, err := LoadConfig(p, false)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{
			Database: DatabaseConfig{Driver: "postgres", URL: "postgres://localhost/ledger"},
			Ledger:   LedgerConfig{OwnerAccount: "owner.near"},
			Auth:     AuthConfig{JWTSecret: "s3cret"},
		}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"missing owner", func(c *Config) { c.Ledger.OwnerAccount = "" }, false},
		{"postgres without url", func(c *Config) { c.Database.URL = "" }, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, false},
		{"no secret outside dev", func(c *Config) { c.Auth.JWTSecret = ""; c.Auth.DevHeader = true }, false},
		{"dev header in dev", func(c *Config) { c.Auth.JWTSecret = ""; c.Auth.DevHeader = true; c.Runtime.Dev = true }, true},
		{"lock ttl below wait", func(c *Config) { c.Ledger.LockTTL = time.Second; c.Ledger.LockWait = 2 * time.Second }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
