// Package config reads the console's settings from LEADS_* environment
// variables.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"
)

type Config struct {
	APIURL      string        // LEADS_API_URL (default "http://localhost:5000")
	TokenStore  string        // LEADS_TOKEN_STORE (file path or redis:// URL; empty = state file)
	NATSURL     string        // LEADS_NATS_URL (optional, empty = no events)
	HTTPTimeout time.Duration // LEADS_HTTP_TIMEOUT (default 0 = none)
	LogLevel    slog.Level    // LEADS_LOG_LEVEL (default "warn")

	// Export settings
	ExportInterval   time.Duration // LEADS_EXPORT_INTERVAL (default 0 = export once)
	ExportS3Bucket   string        // LEADS_EXPORT_S3_BUCKET (enables --s3)
	ExportS3Endpoint string        // LEADS_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string        // LEADS_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string        // LEADS_EXPORT_S3_KEY (default "leads/export.jsonl")
}

// DefaultAPIURL is where the lead API listens in a local setup.
const DefaultAPIURL = "http://localhost:5000"

func Load() (*Config, error) {
	c := &Config{
		APIURL:           strings.TrimRight(envOrDefault("LEADS_API_URL", DefaultAPIURL), "/"),
		TokenStore:       os.Getenv("LEADS_TOKEN_STORE"),
		NATSURL:          os.Getenv("LEADS_NATS_URL"),
		ExportS3Bucket:   os.Getenv("LEADS_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("LEADS_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("LEADS_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:      envOrDefault("LEADS_EXPORT_S3_KEY", "leads/export.jsonl"),
	}

	if err := ValidateAPIURL(c.APIURL); err != nil {
		return nil, fmt.Errorf("LEADS_API_URL: %w", err)
	}

	var err error
	if c.HTTPTimeout, err = durationEnv("LEADS_HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if c.ExportInterval, err = durationEnv("LEADS_EXPORT_INTERVAL"); err != nil {
		return nil, err
	}
	if c.LogLevel, err = ParseLogLevel(envOrDefault("LEADS_LOG_LEVEL", "warn")); err != nil {
		return nil, fmt.Errorf("LEADS_LOG_LEVEL: %w", err)
	}
	return c, nil
}

// ValidateAPIURL checks that raw is an absolute http or https URL.
func ValidateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q: missing host", raw)
	}
	return nil
}

// ParseLogLevel maps debug, info, warn and error (any case) to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

func durationEnv(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
