// Package config centralizes environment-driven configuration so main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr string

	PostgresURL string
	RedisURL    string

	JWTSigningKey   string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	VerifyTokenTTL time.Duration
	ResetTokenTTL  time.Duration

	MeetBaseURL  string
	MeetSecret   string
	PublicWebURL string

	KafkaBrokers  []string
	ActivityTopic string

	CleanupCron string

	MatchLookaheadDays int
	MatchMaxOverlaps   int
	ActivityCutoffDays int
}

// FromEnv builds a Server config from environment variables, with development
// defaults that must be overridden in production.
func FromEnv() Server {
	cfg := Server{
		Addr:               envOr("SOULTRIBE_ADDR", ":8080"),
		PostgresURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSigningKey:      envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:          envOr("JWT_ISSUER", "soultribe"),
		AccessTokenTTL:     envDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour),
		RefreshTokenTTL:    envDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		VerifyTokenTTL:     envDuration("VERIFY_TOKEN_TTL", 48*time.Hour),
		ResetTokenTTL:      envDuration("RESET_TOKEN_TTL", 2*time.Hour),
		MeetBaseURL:        envOr("MEET_BASE_URL", "https://jitsi.soultribe.chat"),
		MeetSecret:         envOr("MEET_SECRET", "dev_secret_key"),
		PublicWebURL:       envOr("PUBLIC_WEB_URL", "https://soultribe.chat"),
		ActivityTopic:      envOr("ACTIVITY_TOPIC", "soultribe.activity"),
		CleanupCron:        envOr("CLEANUP_CRON", "*/15 * * * *"),
		MatchLookaheadDays: envInt("MATCH_LOOKAHEAD_DAYS", 3),
		MatchMaxOverlaps:   envInt("MATCH_MAX_OVERLAPS", 5),
		ActivityCutoffDays: envInt("ACTIVITY_CUTOFF_DAYS", 30),
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
