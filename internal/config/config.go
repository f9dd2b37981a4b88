package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Cleverbot
	CleverbotEndpoint string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxConcurrency       int
	InitialBackoff       time.Duration
	ChatRejectionRetries int // 0 = rejections surface immediately

	// Conversations
	ConversationTTL  time.Duration
	MaxDialogueTurns int

	// Observability
	OTLPEndpoint string

	// JWT / Auth. Empty secret disables auth on /v1.
	JWTSecret string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CleverbotEndpoint: getEnv("CLEVERBOT_ENDPOINT", "http://www.cleverbot.com/webservicemin"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 30*time.Second),

		MaxConcurrency:       getEnvInt("MAX_CONCURRENCY", 8),
		InitialBackoff:       getEnvDuration("INITIAL_BACKOFF", 500*time.Millisecond),
		ChatRejectionRetries: getEnvInt("CHAT_REJECTION_RETRIES", 0),

		ConversationTTL:  getEnvDuration("CONVERSATION_TTL", 30*time.Minute),
		MaxDialogueTurns: getEnvInt("MAX_DIALOGUE_TURNS", 20),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
