// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default polling and request settings.
const (
	DefaultPollUnit       = time.Second
	DefaultQueryTimeout   = 10 * time.Second
	DefaultRateLimitBurst = 1
)

// projectEnvVars lists the variables consulted for the default project, in
// order of precedence.
var projectEnvVars = []string{"GCQ_PROJECT", "BIGQUERY_PROJECT", "GCLOUD_PROJECT", "GOOGLE_CLOUD_PROJECT"}

// Config holds the settings shared by the BigQuery and Cloud Storage clients.
type Config struct {
	ProjectID        string // default project for jobs, datasets and buckets
	CredentialsFile  string // service account key file (optional, ADC otherwise)
	BigQueryEndpoint string // override for the BigQuery REST endpoint
	StorageEndpoint  string // override for the Cloud Storage endpoint
	Location         string // default BigQuery job location, e.g. "EU" or "asia-northeast1"
	LogLevel         string // log level: debug, info, warn, error (default "info")

	// Rate limiting of outbound API calls.
	RateLimitRPS   float64 // sustained requests per second, 0 means unthrottled
	RateLimitBurst int     // burst capacity (default 1)

	// Job polling.
	PollUnit     time.Duration // backoff unit, interval n is (2n+5) units (default 1s)
	PollDeadline time.Duration // ceiling on a single wait, 0 means none
	QueryTimeout time.Duration // server-side wait for synchronous queries (default 10s)

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks that the configuration is usable for API calls.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("no project configured: set one of %s", strings.Join(projectEnvVars, ", "))
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if c.PollUnit <= 0 {
		return fmt.Errorf("POLL_UNIT must be positive")
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables. Invalid numeric
// or duration values fall back to their defaults and are reported in Warnings.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		CredentialsFile:  os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		BigQueryEndpoint: os.Getenv("BIGQUERY_ENDPOINT"),
		StorageEndpoint:  os.Getenv("STORAGE_ENDPOINT"),
		Location:         strings.TrimSpace(os.Getenv("BIGQUERY_LOCATION")),
		LogLevel:         os.Getenv("LOG_LEVEL"),
	}
	for _, key := range projectEnvVars {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			cfg.ProjectID = v
			break
		}
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid RATE_LIMIT_RPS %q, using default", v))
		} else {
			cfg.RateLimitRPS = rps
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid RATE_LIMIT_BURST %q, using default", v))
		} else {
			cfg.RateLimitBurst = burst
		}
	}
	cfg.PollUnit = parseDurationEnv(cfg, "POLL_UNIT")
	cfg.PollDeadline = parseDurationEnv(cfg, "POLL_DEADLINE")
	cfg.QueryTimeout = parseDurationEnv(cfg, "QUERY_TIMEOUT")

	// Defaults
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = DefaultRateLimitBurst
	}
	if cfg.PollUnit <= 0 {
		cfg.PollUnit = DefaultPollUnit
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if cfg.PollDeadline < 0 {
		cfg.PollDeadline = 0
	}
	if cfg.ProjectID == "" {
		cfg.Warnings = append(cfg.Warnings, "no default project set; pass --project or set GCQ_PROJECT")
	}
	if cfg.BigQueryEndpoint != "" && cfg.CredentialsFile == "" {
		cfg.Warnings = append(cfg.Warnings, "BIGQUERY_ENDPOINT set without credentials; requests are unauthenticated")
	}

	return cfg, nil
}

// parseDurationEnv reads key as a Go duration or a bare number of seconds.
func parseDurationEnv(cfg *Config, key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid %s %q, using default", key, v))
		return 0
	}
	return d
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// unquote removes matching surrounding double or single quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
