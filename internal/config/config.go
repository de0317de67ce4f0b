// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "staging", "production"
	LogLevel  string
	LogFormat string // "json" or "text"

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Flows
	FlowOverrideDir string // directory of <category>.yaml overrides (optional)

	// Checks
	SessionTTL   time.Duration
	AnswerPolicy string // "lenient" or "strict"

	// Security
	AdminSecret  string
	RateLimitRPM int
	CORSOrigins  []string

	// Tracing
	OTLPEndpoint     string
	TraceSampleRatio float64
}

const (
	DefaultPort         = "8080"
	DefaultEnv          = "development"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultRateLimit    = 120
	DefaultSessionTTL   = 30 * time.Minute
	DefaultAnswerPolicy = "lenient"
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", DefaultPort),
		Env:             getEnv("ENV", DefaultEnv),
		LogLevel:        getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:       getEnv("LOG_FORMAT", DefaultLogFormat),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		FlowOverrideDir: os.Getenv("FLOW_OVERRIDE_DIR"),
		SessionTTL:      getEnvDuration("SESSION_TTL", DefaultSessionTTL),
		AnswerPolicy:    strings.ToLower(getEnv("ANSWER_POLICY", DefaultAnswerPolicy)),
		AdminSecret:     os.Getenv("ADMIN_SECRET"),
		RateLimitRPM:    int(getEnvInt64("RATE_LIMIT_RPM", int64(DefaultRateLimit))),
		CORSOrigins:     splitList(os.Getenv("CORS_ORIGINS")),
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
	cfg.TraceSampleRatio, _ = strconv.ParseFloat(getEnv("TRACE_SAMPLE_RATIO", "1"), 64)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.AnswerPolicy != "lenient" && c.AnswerPolicy != "strict" {
		return fmt.Errorf("ANSWER_POLICY must be lenient or strict, got %q", c.AnswerPolicy)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.TraceSampleRatio <= 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be in (0, 1]")
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}
	if c.IsProduction() && len(c.AdminSecret) < 16 {
		return fmt.Errorf("ADMIN_SECRET of at least 16 characters is required in production")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45m") or bare seconds ("2700").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
