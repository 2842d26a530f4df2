package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	// Content
	ContentSource string // CSV path, or postgres:// DSN for a content_items table
	MigrationsDir string

	// Events
	RedisURL         string // optional; empty disables the Redis status mirror
	NotifyWebhookURL string // optional; target for the notify bridge

	// Automation defaults (per-run configuration can override)
	Headless         bool
	BrowserBin       string
	BaseURL          string
	Platform         string
	ImplicitWaitSec  int
	UserAgentsJSON   string
	DebugDir         string
	SelectorProfiles string
	ActionsPerMinute int // 0 means unpaced

	// Credentials for the headless runner; the API receives them per request
	PlatformUsername string
	PlatformPassword string

	// Probe
	ProbeTimeoutMS  int
	ProbeMaxRetries int

	// Auth
	JWTSecret        string
	JWTExpiration    time.Duration
	OperatorPassword string
	ViewerPassword   string // optional read-only account

	// Server
	APIPort string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ContentSource: getEnv("CONTENT_SOURCE", "data/content.csv"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),

		RedisURL:         getEnv("REDIS_URL", ""),
		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),

		Headless:         getEnvBool("HEADLESS", true),
		BrowserBin:       getEnv("GOOGLE_CHROME_BIN", ""),
		BaseURL:          getEnv("BASE_URL", "https://www.example.com"),
		Platform:         getEnv("PLATFORM", "generic"),
		ImplicitWaitSec:  getEnvInt("IMPLICIT_WAIT", 10),
		UserAgentsJSON:   getEnv("MOBILE_USER_AGENTS", ""),
		DebugDir:         getEnv("DEBUG_DIR", "debug"),
		SelectorProfiles: getEnv("SELECTOR_PROFILES", ""),
		ActionsPerMinute: getEnvInt("ACTIONS_PER_MINUTE", 0),

		PlatformUsername: getEnv("PLATFORM_USERNAME", ""),
		PlatformPassword: getEnv("PLATFORM_PASSWORD", ""),

		ProbeTimeoutMS:  getEnvInt("PROBE_TIMEOUT_MS", 10000),
		ProbeMaxRetries: getEnvInt("PROBE_MAX_RETRIES", 3),

		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpiration:    time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		OperatorPassword: getEnv("OPERATOR_PASSWORD", ""),
		ViewerPassword:   getEnv("VIEWER_PASSWORD", ""),

		APIPort: getEnv("API_PORT", "3000"),
	}

	return cfg
}

// AutomationDefaults exposes the env-level automation settings as a
// run configuration map. Start requests overlay their own keys on top.
func (c *Config) AutomationDefaults() map[string]any {
	m := map[string]any{
		"headless":      c.Headless,
		"base_url":      c.BaseURL,
		"platform":      c.Platform,
		"implicit_wait": float64(c.ImplicitWaitSec),
	}
	if c.UserAgentsJSON != "" {
		m["mobile_user_agents"] = c.UserAgentsJSON
	}
	return m
}

// UsesPostgresContent reports whether the content source is a database
// rather than a CSV file.
func (c *Config) UsesPostgresContent() bool {
	return strings.HasPrefix(c.ContentSource, "postgres://") ||
		strings.HasPrefix(c.ContentSource, "postgresql://")
}

func (c *Config) Validate(log *zap.Logger) {
	if c.JWTSecret == "change-me-in-production" {
		log.Warn("JWT_SECRET is default, change in production")
	}
	if c.OperatorPassword == "" {
		log.Warn("OPERATOR_PASSWORD is not set, API login is disabled")
	}
	if !c.UsesPostgresContent() {
		if _, err := os.Stat(c.ContentSource); err != nil {
			log.Warn("content source file not found", zap.String("path", c.ContentSource))
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

// getEnvBool treats any value except the literal "false" as true, so a
// stray "0" or "no" never silently turns the browser on screen.
func getEnvBool(key string, fallback bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	return strings.ToLower(strings.TrimSpace(s)) != "false"
}
