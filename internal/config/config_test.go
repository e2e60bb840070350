package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigWithDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "CO", cfg.DefaultStateCode)
	assert.Equal(t, "denver-co", cfg.DefaultCity.Slug)
	assert.Equal(t, "Denver, CO", cfg.DefaultLocationName)
	assert.Equal(t, 10.0, cfg.DefaultRadiusMiles)
	assert.Empty(t, cfg.PaymentPublicKey)
}

func TestWithEnvironment(t *testing.T) {
	cfg := New(WithEnvironment("development"))

	assert.Equal(t, "development", cfg.Environment)
}

func TestWithLogLevel(t *testing.T) {
	cfg := New(WithLogLevel("debug"))
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)

	cfg = New(WithLogLevel("nonsense"))
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestWithHTTPTimeout(t *testing.T) {
	cfg := New(WithHTTPTimeout(30 * time.Second))

	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestValidate(t *testing.T) {
	err := New().Validate()
	assert.ErrorIs(t, err, ErrMissingPaymentKey)

	err = New(WithPaymentPublicKey("pk_test_123")).Validate()
	assert.NoError(t, err)
}

func TestInitializeLogging(t *testing.T) {
	cfg := New(WithEnvironment("local"), WithLogLevel("debug"))
	cfg.InitializeLogging()

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test_abc")
	t.Setenv("DEFAULT_STATE_CODE", "TX")
	t.Setenv("DEFAULT_CITY_SLUG", "austin-tx")
	t.Setenv("DEFAULT_CITY_LAT", "30.2672")
	t.Setenv("DEFAULT_CITY_LNG", "not-a-number")
	t.Setenv("HTTP_MAX_RETRIES", "5")

	cfg := LoadFromEnv()

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "pk_test_abc", cfg.PaymentPublicKey)
	assert.Equal(t, "TX", cfg.DefaultStateCode)
	assert.Equal(t, "austin-tx", cfg.DefaultCity.Slug)
	assert.InDelta(t, 30.2672, cfg.DefaultCity.Latitude, 1e-9)
	assert.InDelta(t, -104.9903, cfg.DefaultCity.Longitude, 1e-9)
	assert.Equal(t, 5, cfg.MaxRetries)
	require.NoError(t, cfg.Validate())
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "value")

	assert.Equal(t, "value", getEnvOrDefault("TEST_ENV_VAR", "default"))
	assert.Equal(t, "default", getEnvOrDefault("NON_EXISTENT_ENV_VAR", "default"))
}

func TestGetDurationEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_DURATION_ENV_VAR", "2s")

	assert.Equal(t, 2*time.Second, getDurationEnvOrDefault("TEST_DURATION_ENV_VAR", 1*time.Second))
	assert.Equal(t, 1*time.Second, getDurationEnvOrDefault("NON_EXISTENT_DURATION_ENV_VAR", 1*time.Second))
}
