package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN selects the durable check store; empty falls back to the
	// in-memory store (dev/demo mode).
	PostgresDSN string

	// RedisURL selects redis-backed cache and rate windows; empty falls
	// back to the in-memory implementations.
	RedisURL string

	// SourceBaseURL is the external record source endpoint. Empty selects
	// the deterministic static fetchers (dev/demo mode).
	SourceBaseURL string

	// FetchTimeout bounds each individual source fetch.
	FetchTimeout time.Duration
	// CheckTimeout bounds one whole aggregation (all fetchers plus wiring).
	CheckTimeout time.Duration

	CacheTTL time.Duration

	RateLimitWindow time.Duration
	RateLimitMax    int

	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("BACKCHECK_ADDR", ":8080"),
		JWTSigningKey:   os.Getenv("JWT_SIGNING_KEY"),
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		RedisURL:        os.Getenv("REDIS_URL"),
		SourceBaseURL:   os.Getenv("SOURCE_BASE_URL"),
		FetchTimeout:    envDuration("FETCH_TIMEOUT", 5*time.Second),
		CheckTimeout:    envDuration("CHECK_TIMEOUT", 20*time.Second),
		CacheTTL:        envDuration("CACHE_TTL", 5*time.Minute),
		RateLimitWindow: envDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:    envInt("RATE_LIMIT_MAX", 100),
		KafkaTopic:      envOr("KAFKA_NOTIFY_TOPIC", "backcheck.notifications"),
	}

	if cfg.JWTSigningKey == "" {
		// Use a default for development - must be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
