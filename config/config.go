package config

import (
	"fmt"
	"os"
	"strconv"

	"civicplus-be/lifecycle"
	"civicplus-be/store"
)

// Config is resolved once at startup from the environment. The storage
// backend is an explicit flag, never discovered by probing for a library at
// runtime, so deployments behave deterministically.
type Config struct {
	Port    string
	Backend string
	DataDir string
	Seed    bool

	EscalateThresholdDays int

	RedisAddr        string
	RedisPassword    string
	RedisQueuePrefix string
	IssueRateLimit   int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getenv("PORT", "8080"),
		Backend:               getenv("BACKEND", store.BackendMemory),
		DataDir:               getenv("DATA_DIR", "data"),
		Seed:                  getenv("SEED", "true") == "true",
		EscalateThresholdDays: lifecycle.DefaultThresholdDays,
		RedisAddr:             os.Getenv("REDIS_ADDRESS"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisQueuePrefix:      getenv("REDIS_QUEUE_FOR_ISSUE_LIMIT", "issue_limit"),
		IssueRateLimit:        10,
	}

	switch cfg.Backend {
	case store.BackendMemory, store.BackendFile, store.BackendSQL:
	default:
		return nil, fmt.Errorf("invalid BACKEND %q: must be memory, file or sql", cfg.Backend)
	}

	if v := os.Getenv("ESCALATE_THRESHOLD_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			return nil, fmt.Errorf("invalid ESCALATE_THRESHOLD_DAYS %q", v)
		}
		cfg.EscalateThresholdDays = days
	}
	if v := os.Getenv("ISSUE_RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return nil, fmt.Errorf("invalid ISSUE_RATE_LIMIT %q", v)
		}
		cfg.IssueRateLimit = limit
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
