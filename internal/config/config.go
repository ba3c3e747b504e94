package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds process configuration derived from the environment.
type Config struct {
	// Currency is the ISO code all balances are denominated in.
	Currency string
	// MaxAccounts bounds the number of live accounts in the store.
	MaxAccounts int
	// DatabaseURL selects the Postgres backend when non-empty.
	DatabaseURL string
	LogLevel    string
	LogFormat   string
}

// FromEnv builds a Config from environment variables, falling back to
// defaults suitable for local development.
func FromEnv() Config {
	cfg := Config{
		Currency:    "USD",
		MaxAccounts: 100,
	}
	if v := strings.TrimSpace(os.Getenv("BANK_CURRENCY")); v != "" {
		cfg.Currency = strings.ToUpper(v)
	}
	if v := strings.TrimSpace(os.Getenv("BANK_MAX_ACCOUNTS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxAccounts = n
		}
	}
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT")))
	return cfg
}
