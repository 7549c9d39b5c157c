package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("FLEET_CONCURRENCY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "site_", cfg.Tenant.StorePrefix)
	assert.Equal(t, 4, cfg.Fleet.Concurrency)
	assert.Equal(t, 5*time.Minute, cfg.Fleet.TenantTimeout)
	assert.Equal(t, "admin@example.com", cfg.Seed.AdminEmail)
	assert.Equal(t, "default", cfg.Seed.ActiveTheme)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_PORT", "")
	t.Setenv("FLEET_CONCURRENCY", "0")
	t.Setenv("FLEET_TENANT_TIMEOUT", "90s")
	t.Setenv("FLEET_INCLUDE_CONTROL_PLANE", "false")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, 1, cfg.Fleet.Concurrency, "并发数至少为1")
	assert.Equal(t, 90*time.Second, cfg.Fleet.TenantTimeout)
	assert.False(t, cfg.Fleet.IncludeControlPlane)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowOrigins)
}
