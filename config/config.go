package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"scoreboard/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Scoring configuration
	BatchSize        int // Unscored games fetched per batch
	StatsCacheSize   int // Capacity of each stats cache
	ProgressInterval int // Games between progress log lines
	ZigMaxDepth      string

	// Grief heuristic thresholds
	Grief GriefConfig

	// Static game tables (domains, blacklists, manual achievements)
	TablesFile string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables forwarding

	// Metrics configuration
	PushgatewayURL string

	// Logging
	LogLevel  string
	LogFormat string

	// Environment
	Environment string // "development", "production" or "test"
}

// GriefConfig holds the thresholds below which a streak-ending loss is treated as a grief
type GriefConfig struct {
	ConsumableMaxDuration int64 // seconds, when potions or scrolls were used
	ConsumableMaxTurns    int64
	CleanMaxDuration      int64 // seconds, when no consumables were used
	CleanMaxTurns         int64
	ExemptFirstGame       bool // a player's first game on a server is never a grief
}

// DefaultGriefConfig returns the empirically tuned thresholds
func DefaultGriefConfig() GriefConfig {
	return GriefConfig{
		ConsumableMaxDuration: 600,
		ConsumableMaxTurns:    1000,
		CleanMaxDuration:      1200,
		CleanMaxTurns:         5000,
		ExemptFirstGame:       true,
	}
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

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Scoring defaults
		BatchSize:        getEnvInt("SCORING_BATCH_SIZE", 5000),
		StatsCacheSize:   getEnvInt("STATS_CACHE_SIZE", 1000),
		ProgressInterval: getEnvInt("PROGRESS_INTERVAL", 10000),
		ZigMaxDepth:      getEnvWithDefault("ZIG_MAX_DEPTH", "27"),

		TablesFile: os.Getenv("SCOREBOARD_TABLES_FILE"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Metrics
		PushgatewayURL: os.Getenv("METRICS_PUSHGATEWAY_URL"),

		// Logging
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	grief := DefaultGriefConfig()
	grief.ConsumableMaxDuration = getEnvInt64("GRIEF_CONSUMABLE_MAX_DURATION", grief.ConsumableMaxDuration)
	grief.ConsumableMaxTurns = getEnvInt64("GRIEF_CONSUMABLE_MAX_TURNS", grief.ConsumableMaxTurns)
	grief.CleanMaxDuration = getEnvInt64("GRIEF_CLEAN_MAX_DURATION", grief.CleanMaxDuration)
	grief.CleanMaxTurns = getEnvInt64("GRIEF_CLEAN_MAX_TURNS", grief.CleanMaxTurns)
	if exempt := os.Getenv("GRIEF_EXEMPT_FIRST_GAME"); exempt != "" {
		if parsed, err := strconv.ParseBool(exempt); err == nil {
			grief.ExemptFirstGame = parsed
		}
	}
	config.Grief = grief

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for values the scorer cannot run with
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("SCORING_BATCH_SIZE must be positive, got %d", c.BatchSize)
	}
	if c.StatsCacheSize <= 0 {
		return fmt.Errorf("STATS_CACHE_SIZE must be positive, got %d", c.StatsCacheSize)
	}
	if c.Environment != "test" {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
			return fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
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

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:      "test",
		BatchSize:        5000,
		StatsCacheSize:   1000,
		ProgressInterval: 10000,
		ZigMaxDepth:      "27",
		Grief:            DefaultGriefConfig(),
		LogLevel:         "info",
		LogFormat:        "text",
	}
}
