package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// SessionStore selects where plan sessions live: "memory" or "redis".
	SessionStore string
	RedisURL     string

	SessionSecret string
	SessionTTL    time.Duration

	// SessionRateLimit caps session creation per client IP per minute.
	SessionRateLimit int
	JanitorInterval  time.Duration

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string

	// TUILogFile receives the terminal host's logs, since it owns stdout.
	TUILogFile string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		GinMode:          getEnv("GIN_MODE", "debug"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "pretty"),
		SessionStore:     parseStore(getEnv("SESSION_STORE", StoreMemory)),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionSecret:    getEnv("SESSION_SECRET", "change-this-to-a-secure-random-string"),
		SessionTTL:       time.Duration(getEnvInt("SESSION_TTL_MINUTES", 120)) * time.Minute,
		SessionRateLimit: getEnvInt("SESSION_RATE_LIMIT", 30),
		JanitorInterval:  time.Duration(getEnvInt("JANITOR_INTERVAL_SECONDS", 60)) * time.Second,
		AllowedOrigins:   parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		TUILogFile:       getEnv("TUI_LOG_FILE", "planner-tui.log"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseStore normalises the store name; anything unknown falls back to memory.
func parseStore(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), StoreRedis) {
		return StoreRedis
	}
	return StoreMemory
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
