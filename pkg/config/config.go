package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	Environment          string  `mapstructure:"ENVIRONMENT"`
	ServerPort           int     `mapstructure:"SERVER_PORT"`
	LogLevel             string  `mapstructure:"LOG_LEVEL"`
	StoreBackend         string  `mapstructure:"STORE_BACKEND"`
	RedisURL             string  `mapstructure:"REDIS_URL"`
	DatabaseURL          string  `mapstructure:"DATABASE_URL"`
	StoreKeyPrefix       string  `mapstructure:"STORE_KEY_PREFIX"`
	StoreMaxRetries      int     `mapstructure:"STORE_MAX_RETRIES"`
	JWTSecret            string  `mapstructure:"JWT_SECRET"`
	SessionTTLMinutes    int     `mapstructure:"SESSION_TTL_MINUTES"`
	RateLimitRPS         float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int     `mapstructure:"RATE_LIMIT_BURST"`
	StatsIntervalSeconds int     `mapstructure:"STATS_INTERVAL_SECONDS"`
	DashboardCacheTTL    int     `mapstructure:"DASHBOARD_CACHE_SECONDS"`
	OTLPEndpoint         string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	CORSAllowedOrigins   []string
}

var defaults = map[string]any{
	"ENVIRONMENT":                 "development",
	"SERVER_PORT":                 8080,
	"LOG_LEVEL":                   "info",
	"STORE_BACKEND":               BackendRedis,
	"REDIS_URL":                   "redis://localhost:6379",
	"DATABASE_URL":                "",
	"STORE_KEY_PREFIX":            "",
	"STORE_MAX_RETRIES":           3,
	"JWT_SECRET":                  "",
	"SESSION_TTL_MINUTES":         1440,
	"RATE_LIMIT_RPS":              10,
	"RATE_LIMIT_BURST":            20,
	"STATS_INTERVAL_SECONDS":      30,
	"DASHBOARD_CACHE_SECONDS":     15,
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"CORS_ALLOWED_ORIGINS":        "http://localhost:8081,http://localhost:19006",
}

// Load reads configuration from environment variables, falling back to
// a .env file in the working directory and then to defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		// Bind explicitly so Unmarshal sees variables set only in the environment
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	// A missing .env file is fine
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.CORSAllowedOrigins = splitCSV(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", BackendPostgres)
		}
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: want %s, %s or %s", c.StoreBackend, BackendMemory, BackendRedis, BackendPostgres)
	}

	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: %d", c.ServerPort)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.StoreMaxRetries < 1 {
		return fmt.Errorf("invalid STORE_MAX_RETRIES: %d", c.StoreMaxRetries)
	}
	return nil
}

// IsProduction returns true when the server is configured for production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.StatsIntervalSeconds) * time.Second
}

func (c *Config) DashboardTTL() time.Duration {
	return time.Duration(c.DashboardCacheTTL) * time.Second
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
