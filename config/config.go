package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Upstream backend configuration
	APIBaseURL  string        // Base URL of the wallet REST backend
	HTTPTimeout time.Duration // Upstream request timeout, 0 disables it

	// Referral configuration
	ReferralLinkBase string // Prefix used to build canonical referral links

	// Web configuration
	ListenAddr     string
	BotURL         string // Shown on the auth prompt
	CookieSecure   bool
	RateLimitRPS   float64
	RateLimitBurst int

	// Cache configuration
	CacheStaleTime time.Duration // How long a successful entry is served without refetch
	SessionTTL     time.Duration // Idle sessions are dropped after this long

	// AuthToken is a fixed host token for local development without Telegram
	AuthToken string

	// Logging
	LogLevel string

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

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// IsProduction reports whether the process runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables, reading a .env file first if one exists
func load() (*Config, error) {
	envFile := getEnvWithDefault("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.WithError(err).WithField("file", envFile).Warn("Failed to read env file")
	}

	config := &Config{
		APIBaseURL: os.Getenv("API_BASE_URL"),

		ReferralLinkBase: getEnvWithDefault("REFERRAL_LINK_BASE", "https://app.com"),

		ListenAddr:     getEnvWithDefault("LISTEN_ADDR", ":8080"),
		BotURL:         os.Getenv("BOT_URL"),
		CookieSecure:   os.Getenv("COOKIE_SECURE") == "true",
		RateLimitRPS:   20,
		RateLimitBurst: 40,

		CacheStaleTime: 30 * time.Second,
		SessionTTL:     30 * time.Minute,

		AuthToken: os.Getenv("AUTH_TOKEN"),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	var err error
	if config.HTTPTimeout, err = getDurationEnv("HTTP_TIMEOUT", 0); err != nil {
		return nil, err
	}
	if config.CacheStaleTime, err = getDurationEnv("CACHE_STALE_TIME", config.CacheStaleTime); err != nil {
		return nil, err
	}
	if config.SessionTTL, err = getDurationEnv("SESSION_TTL", config.SessionTTL); err != nil {
		return nil, err
	}
	if rps := os.Getenv("RATE_LIMIT_RPS"); rps != "" {
		if parsed, err := strconv.ParseFloat(rps, 64); err == nil {
			config.RateLimitRPS = parsed
		}
	}
	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if parsed, err := strconv.Atoi(burst); err == nil {
			config.RateLimitBurst = parsed
		}
	}

	config.ReferralLinkBase = strings.TrimSuffix(config.ReferralLinkBase, "/")

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.APIBaseURL == "" {
			return nil, fmt.Errorf("API_BASE_URL is required")
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

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

// ConfigureLogging applies the configured level and formatter to the global logger
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("Unknown log level, falling back to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
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
		APIBaseURL:       "http://127.0.0.1:0",
		ReferralLinkBase: "https://app.com",
		ListenAddr:       ":0",
		RateLimitRPS:     1000,
		RateLimitBurst:   1000,
		CacheStaleTime:   30 * time.Second,
		SessionTTL:       time.Minute,
		LogLevel:         "debug",
	}
}
