// Package config builds the immutable process configuration. It is constructed
// once in main and passed by value; business logic never reads the environment.
package config

import (
	"errors"
	"flag"
	"os"
	"time"
)

// Config holds everything the server reads at startup.
type Config struct {
	Addr       string        // HTTP listen address
	DSN        string        // PostgreSQL connection string
	JWTSecret  string        // HS256 signing secret
	TokenTTL   time.Duration // session token lifetime
	CORSOrigin string        // allowed frontend origin
	Dev        bool          // verbose errors and debug logging
}

// FromFlags parses command-line flags, with environment variables as defaults,
// and validates the result.
func FromFlags() (Config, error) {
	var cfg Config
	flag.StringVar(&cfg.Addr, "addr", envOr("ADDR", ":5000"), "listen address")
	flag.StringVar(&cfg.DSN, "dsn", envOr("DATABASE_DSN", ""), "PostgreSQL DSN")
	flag.StringVar(&cfg.JWTSecret, "jwt-secret", envOr("JWT_SECRET", ""), "HS256 signing secret (required)")
	flag.DurationVar(&cfg.TokenTTL, "token-ttl", envDurationOr("TOKEN_TTL", 7*24*time.Hour), "session token lifetime")
	flag.StringVar(&cfg.CORSOrigin, "cors-origin", envOr("CORS_ORIGIN", "http://localhost:3000"), "allowed CORS origin")
	flag.BoolVar(&cfg.Dev, "dev", os.Getenv("DEV") == "1", "development mode")
	flag.Parse()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: missing JWT signing secret")
	}
	if c.DSN == "" {
		return errors.New("config: missing database DSN")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: token TTL must be positive")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
