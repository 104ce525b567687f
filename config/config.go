package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"stakeduel/database"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP API
	HTTPAddr  string
	JWTSecret string

	// Messaging. Empty disables NATS publishing.
	NATSServers string

	// Money rules
	PlatformFeeRate decimal.Decimal // fraction of the pot withheld on a non-tie settlement
	MinStake        decimal.Decimal
	MaxStake        decimal.Decimal // zero means unbounded

	// Match timing
	CountdownDuration time.Duration
	CancelCooldown    time.Duration
	DisconnectAfter   time.Duration // heartbeat age after which the opponent is shown as disconnected
	AbandonAfter      time.Duration // heartbeat age after which the opponent forfeits
	MatchTimeout      time.Duration
	OpenMatchWindow   time.Duration
	SweepInterval     time.Duration

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables, reading an optional .env first
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to read .env file")
	}

	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr:  getEnvWithDefault("HTTP_ADDR", ":8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		NATSServers: os.Getenv("NATS_SERVERS"),

		PlatformFeeRate: getDecimalWithDefault("PLATFORM_FEE_RATE", decimal.RequireFromString("0.05")),
		MinStake:        getDecimalWithDefault("MIN_STAKE", decimal.RequireFromString("1")),
		MaxStake:        getDecimalWithDefault("MAX_STAKE", decimal.Zero),

		CountdownDuration: getSecondsWithDefault("COUNTDOWN_SECONDS", 10),
		CancelCooldown:    getSecondsWithDefault("CANCEL_COOLDOWN_SECONDS", 60),
		DisconnectAfter:   getSecondsWithDefault("DISCONNECT_AFTER_SECONDS", 10),
		AbandonAfter:      getSecondsWithDefault("ABANDON_AFTER_SECONDS", 30),
		MatchTimeout:      getSecondsWithDefault("MATCH_TIMEOUT_SECONDS", 900),
		OpenMatchWindow:   getSecondsWithDefault("OPEN_MATCH_WINDOW_MINUTES", 10) * 60,
		SweepInterval:     getSecondsWithDefault("SWEEP_INTERVAL_SECONDS", 5),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	if config.PlatformFeeRate.IsNegative() || config.PlatformFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("PLATFORM_FEE_RATE must be in [0, 1), got %s", config.PlatformFeeRate)
	}
	if config.DisconnectAfter >= config.AbandonAfter {
		return nil, fmt.Errorf("DISCONNECT_AFTER_SECONDS must be lower than ABANDON_AFTER_SECONDS")
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getSecondsWithDefault(key string, defaultSeconds int) time.Duration {
	seconds := defaultSeconds
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed >= 0 {
			seconds = parsed
		}
	}
	return time.Duration(seconds) * time.Second
}

func getDecimalWithDefault(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// SetTestConfig sets a test configuration instance
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a config with the production defaults suitable for tests
func NewTestConfig() *Config {
	return &Config{
		HTTPAddr:          ":0",
		JWTSecret:         "test-secret",
		PlatformFeeRate:   decimal.RequireFromString("0.05"),
		MinStake:          decimal.RequireFromString("1"),
		MaxStake:          decimal.Zero,
		CountdownDuration: 10 * time.Second,
		CancelCooldown:    60 * time.Second,
		DisconnectAfter:   10 * time.Second,
		AbandonAfter:      30 * time.Second,
		MatchTimeout:      15 * time.Minute,
		OpenMatchWindow:   10 * time.Minute,
		SweepInterval:     5 * time.Second,
		LogLevel:          "debug",
		LogFormat:         "text",
		Environment:       "test",
	}
}
