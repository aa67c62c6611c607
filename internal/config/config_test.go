package config_test

import (
	"testing"
	"time"

	"uptask/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("JWT_EXPIRY_HOURS", "24")
	t.Setenv("TOKEN_DIGITS", "8")
	t.Setenv("TOKEN_STRICT_PURPOSE", "true")
	t.Setenv("PORT", "9090")

	cfg := config.Load()

	// An unparsable duration falls back to the default
	assert.Equal(t, 10*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 8, cfg.TokenDigits)
	assert.True(t, cfg.StrictTokenPurpose)
	assert.Equal(t, "9090", cfg.ServerPort)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			JWTSecret:          "secret",
			SessionTTL:         time.Hour,
			TokenTTL:           10 * time.Minute,
			TokenSweepInterval: time.Minute,
			TokenDigits:        6,
			FrontendURL:        "http://localhost:5173",
		}
	}

	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"empty secret", func(c *config.Config) { c.JWTSecret = "" }},
		{"zero session ttl", func(c *config.Config) { c.SessionTTL = 0 }},
		{"negative token ttl", func(c *config.Config) { c.TokenTTL = -time.Second }},
		{"zero sweep interval", func(c *config.Config) { c.TokenSweepInterval = 0 }},
		{"short token", func(c *config.Config) { c.TokenDigits = 4 }},
		{"missing frontend", func(c *config.Config) { c.FrontendURL = "" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
