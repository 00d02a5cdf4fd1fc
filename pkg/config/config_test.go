package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, int64(1000000), cfg.Catalog.PriceRescaleThreshold)
	assert.Equal(t, 24, cfg.JWT.ExpiryHours)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("PRICE_RESCALE_THRESHOLD", "5000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:test.db", cfg.Database.URL)
	assert.Equal(t, 2, cfg.JWT.ExpiryHours)
	assert.Equal(t, int64(5000), cfg.Catalog.PriceRescaleThreshold)
}

func TestValidate(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)

	cfg := &Config{
		Server:   ServerConfig{Env: "production"},
		Database: DatabaseConfig{Driver: "postgres"},
		JWT:      JWTConfig{Secret: "dev-secret-change-me"},
	}
	assert.Error(t, cfg.Validate())

	cfg.JWT.Secret = "real"
	assert.NoError(t, cfg.Validate())

	cfg.Email.Provider = "resend"
	assert.Error(t, cfg.Validate())
}

func TestGetEnvIntFallback(t *testing.T) {
	t.Setenv("SOME_INT", "not-a-number")
	assert.Equal(t, 7, getEnvInt("SOME_INT", 7))
}
