package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/lalamove/internal/config"
	"github.com/tournevent/lalamove/pkg/lalamove"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LALAMOVE_USE_MOCK", "true")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 80, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "MY", cfg.LalamoveMarket)
	assert.Equal(t, "production", cfg.LalamoveEnvironment)
	assert.Equal(t, 30*time.Second, cfg.LalamoveTimeout)
	assert.False(t, cfg.LalamoveDebug)
	assert.True(t, cfg.LalamoveEnabled)
	assert.Equal(t, time.Hour, cfg.CityCacheTTL)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LALAMOVE_API_KEY", "pk_test")
	t.Setenv("LALAMOVE_API_SECRET", "sk_test")
	t.Setenv("LALAMOVE_MARKET", "sg")
	t.Setenv("LALAMOVE_ENVIRONMENT", "sandbox")
	t.Setenv("LALAMOVE_TIMEOUT", "5s")
	t.Setenv("LALAMOVE_DEBUG", "true")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)

	lm := cfg.Lalamove()
	assert.Equal(t, "pk_test", lm.APIKey)
	assert.Equal(t, "sk_test", lm.APISecret)
	assert.Equal(t, "sg", lm.Market)
	assert.Equal(t, lalamove.Sandbox, lm.Environment)
	assert.Equal(t, 5*time.Second, lm.Timeout)
	assert.True(t, lm.Debug)
	assert.False(t, lm.UseMock)
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Setenv("LALAMOVE_API_KEY", "")
	t.Setenv("LALAMOVE_API_SECRET", "")
	t.Setenv("LALAMOVE_USE_MOCK", "false")

	_, err := config.Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LALAMOVE_API_KEY")
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			LalamoveAPIKey:      "pk",
			LalamoveAPISecret:   "sk",
			LalamoveEnvironment: "sandbox",
			LalamoveEnabled:     true,
			CityCacheTTL:        time.Minute,
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.LalamoveEnvironment = "staging"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")

	cfg = valid()
	cfg.LalamoveAPISecret = ""
	assert.Error(t, cfg.Validate())

	cfg.LalamoveUseMock = true
	assert.NoError(t, cfg.Validate(), "mock mode needs no credentials")

	cfg = valid()
	cfg.LalamoveAPIKey = ""
	cfg.LalamoveEnabled = false
	assert.NoError(t, cfg.Validate(), "disabled carrier needs no credentials")

	cfg = valid()
	cfg.CityCacheTTL = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestAttributes(t *testing.T) {
	cfg := &config.Config{
		ServiceName:     "delivro-lalamove",
		Version:         "1.2.3",
		LalamoveEnabled: true,
		LalamoveMarket:  "MY",
	}

	attrs := cfg.Attributes()

	values := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		values[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "delivro-lalamove", values["service.name"])
	assert.Equal(t, "1.2.3", values["service.version"])
	assert.Equal(t, "true", values["lalamove.enabled"])
	assert.Equal(t, "false", values["cache.redis"])
}
