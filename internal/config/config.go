// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"notecloud/internal/cloud"
)

// Config is everything cmd/server needs to assemble the process.
type Config struct {
	ListenAddr  string
	StorageRoot string
	CacheTTL    time.Duration

	Host        string
	Account     string
	Password    string
	AccessToken string

	// Scope is the account segment of every identifier served by this
	// process. It must not contain identifier separators.
	Scope string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  envOrDefault("LISTEN_ADDR", ":8080"),
		StorageRoot: envOrDefault("STORAGE_ROOT", "./data"),
		Host:        envOrDefault("SUPERNOTE_HOST", cloud.DefaultHost),
		Account:     os.Getenv("SUPERNOTE_ACCOUNT"),
		Password:    os.Getenv("SUPERNOTE_PASSWORD"),
		AccessToken: os.Getenv("SUPERNOTE_ACCESS_TOKEN"),
	}

	ttlStr := envOrDefault("CACHE_TTL", "1h")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL %q: %w", ttlStr, err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be positive, got %q", ttlStr)
	}
	cfg.CacheTTL = ttl

	if cfg.Account == "" {
		return nil, fmt.Errorf("SUPERNOTE_ACCOUNT is required")
	}
	if cfg.Password == "" && cfg.AccessToken == "" {
		return nil, fmt.Errorf("either SUPERNOTE_PASSWORD or SUPERNOTE_ACCESS_TOKEN is required")
	}

	cfg.Scope = os.Getenv("ACCOUNT_SCOPE")
	if cfg.Scope == "" {
		cfg.Scope = ScopeFromAccount(cfg.Account)
	}
	if strings.ContainsAny(cfg.Scope, "/:") {
		return nil, fmt.Errorf("ACCOUNT_SCOPE %q must not contain '/' or ':'", cfg.Scope)
	}

	return cfg, nil
}

// ScopeFromAccount derives a separator-free scope from an account name,
// typically an email address or phone number.
func ScopeFromAccount(account string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, account)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
