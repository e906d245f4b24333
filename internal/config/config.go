package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL string
	Port        string

	// Default loan duration applied when a borrow request is approved
	// without an explicit duration.
	LoanDurationDays int

	// OTLP trace endpoint, e.g. "localhost:4318". Tracing is disabled
	// when empty.
	OTLPEndpoint string

	// Global HTTP rate limit.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               "8080",
		LoanDurationDays:   7,
		RateLimitPerSecond: 50,
		RateLimitBurst:     100,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	if days := os.Getenv("LOAN_DURATION_DAYS"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid LOAN_DURATION_DAYS: %s", days)
		}
		cfg.LoanDurationDays = n
	}

	cfg.OTLPEndpoint = os.Getenv("OTLP_ENDPOINT")

	if rps := os.Getenv("RATE_LIMIT_PER_SECOND"); rps != "" {
		f, err := strconv.ParseFloat(rps, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_SECOND: %s", rps)
		}
		cfg.RateLimitPerSecond = f
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		n, err := strconv.Atoi(burst)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %s", burst)
		}
		cfg.RateLimitBurst = n
	}

	return cfg, nil
}
