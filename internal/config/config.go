package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrMissingPaymentKey is returned by Validate when no publishable payment key is configured.
var ErrMissingPaymentKey = errors.New("STRIPE_PUBLISHABLE_KEY is required")

// City is a fixed fallback dataset: the slug the backend knows it by plus its map centre.
type City struct {
	Slug      string
	Name      string
	Latitude  float64
	Longitude float64
}

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	HTTPTimeout time.Duration
	MaxRetries  int
	ListenAddr  string

	APIBaseURL      string
	GeocoderBaseURL string

	PaymentPublicKey string
	JWTSecret        string

	DefaultStateCode    string
	DefaultCity         City
	DefaultLocationName string
	DefaultRadiusMiles  float64
	MaxRadiusMiles      float64

	// LocationBucket holds the last resolved location name; empty keeps it in memory.
	LocationBucket string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithAPIBaseURL(url string) Option {
	return func(c *Config) {
		c.APIBaseURL = url
	}
}

func WithGeocoderBaseURL(url string) Option {
	return func(c *Config) {
		c.GeocoderBaseURL = url
	}
}

func WithPaymentPublicKey(key string) Option {
	return func(c *Config) {
		c.PaymentPublicKey = key
	}
}

func WithJWTSecret(secret string) Option {
	return func(c *Config) {
		c.JWTSecret = secret
	}
}

func WithDefaultStateCode(code string) Option {
	return func(c *Config) {
		c.DefaultStateCode = code
	}
}

func WithDefaultCity(city City) Option {
	return func(c *Config) {
		c.DefaultCity = city
	}
}

func WithLocationBucket(bucket string) Option {
	return func(c *Config) {
		c.LocationBucket = bucket
	}
}

func WithListenAddr(addr string) Option {
	return func(c *Config) {
		c.ListenAddr = addr
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:      "production",
		LogLevel:         zerolog.InfoLevel,
		HTTPTimeout:      10 * time.Second,
		MaxRetries:       3,
		ListenAddr:       ":8080",
		APIBaseURL:       "http://localhost:5000",
		GeocoderBaseURL:  "https://nominatim.openstreetmap.org",
		DefaultStateCode: "CO",
		DefaultCity: City{
			Slug:      "denver-co",
			Name:      "Denver, CO",
			Latitude:  39.7392,
			Longitude: -104.9903,
		},
		DefaultLocationName: "Denver, CO",
		DefaultRadiusMiles:  10,
		MaxRadiusMiles:      50,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	if c.PaymentPublicKey == "" {
		return ErrMissingPaymentKey
	}
	return nil
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
		return
	}
	log.Logger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	defaults := New()
	return New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithListenAddr(getEnvOrDefault("LISTEN_ADDR", defaults.ListenAddr)),
		WithAPIBaseURL(getEnvOrDefault("API_BASE_URL", defaults.APIBaseURL)),
		WithGeocoderBaseURL(getEnvOrDefault("GEOCODER_BASE_URL", defaults.GeocoderBaseURL)),
		WithPaymentPublicKey(os.Getenv("STRIPE_PUBLISHABLE_KEY")),
		WithJWTSecret(os.Getenv("JWT_SECRET")),
		WithDefaultStateCode(getEnvOrDefault("DEFAULT_STATE_CODE", defaults.DefaultStateCode)),
		WithDefaultCity(City{
			Slug:      getEnvOrDefault("DEFAULT_CITY_SLUG", defaults.DefaultCity.Slug),
			Name:      getEnvOrDefault("DEFAULT_CITY_NAME", defaults.DefaultCity.Name),
			Latitude:  getFloatEnvOrDefault("DEFAULT_CITY_LAT", defaults.DefaultCity.Latitude),
			Longitude: getFloatEnvOrDefault("DEFAULT_CITY_LNG", defaults.DefaultCity.Longitude),
		}),
		WithLocationBucket(os.Getenv("LOCATION_CACHE_BUCKET")),
		func(c *Config) {
			c.DefaultLocationName = getEnvOrDefault("DEFAULT_LOCATION_NAME", defaults.DefaultLocationName)
			c.MaxRetries = getEnvInt("HTTP_MAX_RETRIES", defaults.MaxRetries)
		},
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Msg("Invalid float value in environment variable, using default")
	}
	return defaultValue
}
