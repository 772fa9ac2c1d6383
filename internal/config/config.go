// Package config loads service settings from defaults, an optional YAML file,
// a .env file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Gateway backends
const (
	BackendREST     = "rest"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config is the full service configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type GatewayConfig struct {
	Backend      string        `mapstructure:"backend"`
	URL          string        `mapstructure:"url"`
	ServiceKey   string        `mapstructure:"service_key"`
	DSN          string        `mapstructure:"dsn"`
	Timeout      time.Duration `mapstructure:"timeout"`
	BulkheadSize int           `mapstructure:"bulkhead_size"`
	BulkheadWait time.Duration `mapstructure:"bulkhead_wait"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

type PaymentConfig struct {
	Merchant          string `mapstructure:"merchant"`
	StrictBookkeeping bool   `mapstructure:"strict_bookkeeping"`
}

type CatalogConfig struct {
	File string `mapstructure:"file"`
	// Seed writes the file's formations into the formations table at startup
	Seed bool `mapstructure:"seed"`
}

// RedisConfig enables shared verification locks when Addr is set
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type AdminConfig struct {
	Password      string        `mapstructure:"password"`
	PasswordHash  string        `mapstructure:"password_hash"`
	SessionSecret string        `mapstructure:"session_secret"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SecureCookie  bool          `mapstructure:"secure_cookie"`
}

type RateLimitConfig struct {
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

var defaults = map[string]any{
	"server.port":                   8080,
	"server.mode":                   "release",
	"server.shutdown_timeout":       "10s",
	"server.allowed_origins":        []string{},
	"log.level":                     "info",
	"gateway.backend":               BackendREST,
	"gateway.url":                   "",
	"gateway.service_key":           "",
	"gateway.dsn":                   "",
	"gateway.timeout":               "5s",
	"gateway.bulkhead_size":         20,
	"gateway.bulkhead_wait":         "1s",
	"gateway.breaker.max_requests":  3,
	"gateway.breaker.interval":      "30s",
	"gateway.breaker.timeout":       "15s",
	"gateway.breaker.min_requests":  5,
	"gateway.breaker.failure_ratio": 0.6,
	"payment.merchant":              "M_OfAgT8X_IT6P",
	"payment.strict_bookkeeping":    false,
	"catalog.file":                  "",
	"catalog.seed":                  false,
	"redis.addr":                    "",
	"redis.password":                "",
	"redis.db":                      0,
	"redis.lock_ttl":                "10s",
	"admin.password":                "",
	"admin.password_hash":           "",
	"admin.session_secret":          "",
	"admin.session_ttl":             "24h",
	"admin.secure_cookie":           true,
	"rate_limit.rps":                5,
	"rate_limit.burst":              10,
	"rate_limit.idle_ttl":           "10m",
}

// names the hosted backend and the site already use for the same settings
var aliases = map[string][]string{
	"gateway.url":          {"GATEWAY_URL", "SUPABASE_URL", "NEXT_PUBLIC_SUPABASE_URL"},
	"gateway.service_key":  {"GATEWAY_SERVICE_KEY", "SUPABASE_SERVICE_ROLE_KEY"},
	"gateway.dsn":          {"GATEWAY_DSN", "DATABASE_URL"},
	"admin.password":       {"ADMIN_PASSWORD"},
	"admin.session_secret": {"ADMIN_SESSION_SECRET"},
	"payment.merchant":     {"PAYMENT_MERCHANT", "WAVE_MERCHANT_ID"},
	"server.port":          {"SERVER_PORT", "PORT"},
}

// Load reads configuration. path may be empty; a missing .env is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, envs := range aliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the selected backend needs
func (c *Config) Validate() error {
	switch c.Gateway.Backend {
	case BackendREST:
		if c.Gateway.URL == "" || c.Gateway.ServiceKey == "" {
			return errors.New("config: gateway.url and gateway.service_key are required for the rest backend")
		}
	case BackendPostgres:
		if c.Gateway.DSN == "" {
			return errors.New("config: gateway.dsn is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown gateway backend %q", c.Gateway.Backend)
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.AdminEnabled() && c.Admin.SessionSecret == "" {
		return errors.New("config: admin.session_secret is required when an admin password is set")
	}
	if c.Catalog.Seed && c.Catalog.File == "" {
		return errors.New("config: catalog.seed requires catalog.file")
	}
	return nil
}

// AdminEnabled reports whether dashboard login is configured
func (c *Config) AdminEnabled() bool {
	return c.Admin.Password != "" || c.Admin.PasswordHash != ""
}
