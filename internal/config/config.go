package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting, loaded from the environment with an
// optional .env file for local development.
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL string
	RedisURL    string

	// KafkaBrokers is empty when event publishing is disabled.
	KafkaBrokers []string

	JWTSecret string
	TokenTTL  time.Duration

	// NoShowGrace is how long after the scheduled start a session may sit
	// untouched before the sweeper marks it a no-show.
	NoShowGrace        time.Duration
	NoShowSweepEvery   time.Duration
	MaxCourseRetries   int
	EnableNoShowSweeps bool

	// CertificateReconcileEvery drives the sweep that backfills certificates
	// whose issuance failed after enrollment completion.
	CertificateReconcileEvery time.Duration
	EnableCertificateSweeps   bool
}

func LoadConfig() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  getDurationEnv("TOKEN_TTL", 24*time.Hour),

		NoShowGrace:        getDurationEnv("NO_SHOW_GRACE", 2*time.Hour),
		NoShowSweepEvery:   getDurationEnv("NO_SHOW_SWEEP_EVERY", 15*time.Minute),
		MaxCourseRetries:   getIntEnv("MAX_COURSE_RETRIES", 2),
		EnableNoShowSweeps: getEnv("ENABLE_NO_SHOW_SWEEPS", "true") == "true",

		CertificateReconcileEvery: getDurationEnv("CERTIFICATE_RECONCILE_EVERY", 10*time.Minute),
		EnableCertificateSweeps:   getEnv("ENABLE_CERTIFICATE_SWEEPS", "true") == "true",
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if trimmed := strings.TrimSpace(broker); trimmed != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, trimmed)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		if cfg.Environment == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-only-secret"
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
