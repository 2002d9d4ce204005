package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "PORT", "DB_PATH", "SESSION_SECRET", "PRICING_CONFIG_PATH",
		"CATALOG_SEED_PATH", "LOG_MODE", "MIGRATE_ON_START", "REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, warnings := Load()
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultDBPath, cfg.DBPath)
	assert.True(t, cfg.IsDev())
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, "dev", cfg.LogMode)
	assert.Equal(t, defaultRequestTimeout, cfg.RequestTimeout)
	assert.Contains(t, warnings, "SESSION_SECRET is not set")
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("PRICING_CONFIG_PATH", "/etc/buildquote/pricing.yaml")

	cfg, warnings := Load()
	assert.Empty(t, warnings)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "prod", cfg.LogMode)
	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/etc/buildquote/pricing.yaml", cfg.PricingConfigPath)
}

func TestLoadWarnsOnBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "x")
	t.Setenv("MIGRATE_ON_START", "maybe")
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg, warnings := Load()
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, defaultRequestTimeout, cfg.RequestTimeout)
	assert.Len(t, warnings, 2)
}
