// Package config loads environment-driven configuration.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the binaries need.
type Config struct {
	Addr         string // HTTP status API listen address
	DatabaseURL  string // remote postgres store; required
	StatePath    string // local sqlite state file
	CatalogPath  string // achievement catalog YAML; empty skips seeding
	OIDCIssuer   string // external identity provider; empty disables verification
	OIDCClientID string
	DemoMode     bool // drive the in-memory sensor instead of a platform one
	// SchedulerInterval is the in-process background pass cadence; 0
	// disables the in-process scheduler (an external timer invokes
	// stepquest-sync instead).
	SchedulerInterval time.Duration
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return Config{
		Addr:              getenv("ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StatePath:         getenv("STATE_PATH", "./data/stepquest.db"),
		CatalogPath:       getenv("ACHIEVEMENTS_PATH", ""),
		OIDCIssuer:        getenv("OIDC_ISSUER", ""),
		OIDCClientID:      getenv("OIDC_CLIENT_ID", ""),
		DemoMode:          getenvBool("DEMO_MODE", false),
		SchedulerInterval: time.Duration(getenvInt("SCHEDULER_INTERVAL_MIN", 0)) * time.Minute,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
