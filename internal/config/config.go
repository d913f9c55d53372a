// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port" env:"PORT"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LEVEL"`       // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"FORMAT"`     // json|console
	Sampling bool   `yaml:"sampling" env:"SAMPLING"` // enable sampling in prod
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DRIVER"` // postgres|memory
	URL      string `yaml:"url" env:"URL"`
	MaxConns int32  `yaml:"max_conns" env:"MAX_CONNS"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" env:"URL"` // empty disables redis (in-process locks, no cache)
	Password string        `yaml:"password" env:"PASSWORD"`
	DB       int           `yaml:"db" env:"DB"`
	TTL      time.Duration `yaml:"ttl" env:"TTL"` // member cache ttl
}

type LedgerConfig struct {
	OwnerAccount  string        `yaml:"owner_account" env:"OWNER_ACCOUNT"`
	LockWait      time.Duration `yaml:"lock_wait" env:"LOCK_WAIT"`
	LockTTL       time.Duration `yaml:"lock_ttl" env:"LOCK_TTL"`
	RestrictIssue bool          `yaml:"restrict_issue" env:"RESTRICT_ISSUE"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	// DevHeader trusts X-Account-ID without a token. Only honoured in dev mode.
	DevHeader bool `yaml:"dev_header" env:"DEV_HEADER"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests" env:"REQUESTS"`
	Window   time.Duration `yaml:"window" env:"WINDOW"`
}

type MetricsConfig struct {
	SampleInterval time.Duration `yaml:"sample_interval" env:"SAMPLE_INTERVAL"`
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http" envPrefix:"HTTP_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Database  DatabaseConfig  `yaml:"database" envPrefix:"DATABASE_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Ledger    LedgerConfig    `yaml:"ledger" envPrefix:"LEDGER_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`

	Runtime RuntimeConfig `yaml:"-"`
}

// EnvPrefix namespaces every environment override, e.g. LEDGER_DATABASE_URL.
const EnvPrefix = "LEDGER_"

// LoadConfig reads the YAML file at path (a missing file is allowed), overlays
// LEDGER_* environment variables, fills defaults and validates.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
			// env-only configuration
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)
	if c.Ledger.LockWait <= 0 {
		c.Ledger.LockWait = 2 * time.Second
	}
	if c.Ledger.LockTTL <= 0 {
		c.Ledger.LockTTL = 5 * time.Second
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Metrics.SampleInterval <= 0 {
		c.Metrics.SampleInterval = 15 * time.Second
	}
}

// Validate performs the minimal checks needed to start.
func (c *Config) Validate() error {
	if c.Ledger.OwnerAccount == "" {
		return errors.New("ledger.owner_account is required")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver %q is not supported (postgres|memory)", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" && !(c.Runtime.Dev && c.Auth.DevHeader) {
		return errors.New("auth.jwt_secret is required unless dev mode with auth.dev_header")
	}
	if c.Ledger.LockTTL < c.Ledger.LockWait {
		return errors.New("ledger.lock_ttl must be at least ledger.lock_wait")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
