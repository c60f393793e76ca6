package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	Debug       bool
	DatabaseURL string
	AdminToken  string

	// Reclamation
	ReclaimInterval time.Duration
	NoShowGrace     time.Duration

	// Reservation policy
	CancellationLead time.Duration
	WaitlistTTL      time.Duration
}

func Load() *Config {
	// .env is optional; env vars win either way.
	_ = godotenv.Load()

	return &Config{
		ServerPort:       getEnv("PORT", "8080"),
		Debug:            getEnvBool("DEBUG", false),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		AdminToken:       getEnv("ADMIN_TOKEN", ""),
		ReclaimInterval:  getEnvDuration("RECLAIM_INTERVAL", 10*time.Minute),
		NoShowGrace:      getEnvDuration("NO_SHOW_GRACE", 30*time.Minute),
		CancellationLead: getEnvDuration("CANCELLATION_LEAD", 2*time.Hour),
		WaitlistTTL:      getEnvDuration("WAITLIST_TTL", 24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
