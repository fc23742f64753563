package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	defaultDBPath        = "./dev.db"
	defaultPort          = "8080"
	defaultMigrationsDir = "./migrations"
	defaultAppEnv        = "development"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DBPath             string
	MigrationsDir      string
	CORSAllowedOrigins []string
	LogLevel           string
	LogFormat          string
	// PricingTablePath points at an optional JSON price list. Empty means the
	// built-in reference table.
	PricingTablePath string
	MetricsNamespace string
	// MetricsBucketsMS is a comma-separated list of latency histogram bounds.
	MetricsBucketsMS string
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	cfg := Config{
		AppEnv:             strings.ToLower(valueOrDefault(k.String("APP_ENV"), defaultAppEnv)),
		Port:               valueOrDefault(k.String("PORT"), defaultPort),
		DBPath:             valueOrDefault(k.String("DB_PATH"), defaultDBPath),
		MigrationsDir:      valueOrDefault(k.String("MIGRATIONS_DIR"), defaultMigrationsDir),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		PricingTablePath:   strings.TrimSpace(k.String("PRICING_TABLE_PATH")),
		MetricsNamespace:   valueOrDefault(k.String("METRICS_NAMESPACE"), "kiosk"),
		MetricsBucketsMS:   strings.TrimSpace(k.String("METRICS_BUCKETS_MS")),
	}

	if len(cfg.CORSAllowedOrigins) == 0 && cfg.IsDev() {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	return cfg, nil
}

// IsDev reports whether the service runs in a local development environment,
// where migrations and the variant seed are applied on startup.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Warnings lists settings that are allowed but probably wrong.
func (c Config) Warnings() []string {
	var out []string
	if !c.IsDev() && len(c.CORSAllowedOrigins) == 0 {
		out = append(out, "CORS_ALLOWED_ORIGINS is not set; every origin is allowed")
	}
	if !c.IsDev() && c.DBPath == defaultDBPath {
		out = append(out, "DB_PATH is not set; using "+defaultDBPath)
	}
	return out
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
