package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"APP_ENV" env-default:"development"`
	Port        string `yaml:"port" env:"PORT" env-default:"8080"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL" env-required:"true"`
	RedisAddr   string `yaml:"redis_addr" env:"REDIS_ADDR"`
	SentryDSN   string `yaml:"sentry_dsn" env:"SENTRY_DSN"`
	ConfigDir   string `yaml:"config_dir" env:"CONFIG_DIR" env-default:"./configs"`
	CronSecret  string `yaml:"-" env:"CRON_SECRET"`

	Auth AuthConfig `yaml:"auth"`
}

type AuthConfig struct {
	// The two signing secrets are deliberately separate values; Validate
	// refuses a configuration where they coincide.
	AccessSecret  string `yaml:"-" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	RefreshSecret string `yaml:"-" env:"REFRESH_TOKEN_SECRET" env-required:"true"`

	AccessTTL  time.Duration `yaml:"access_ttl" env:"ACCESS_TOKEN_TTL" env-default:"1h"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`

	MaxAttempts int           `yaml:"max_login_attempts" env:"LOGIN_MAX_ATTEMPTS" env-default:"5"`
	LockWindow  time.Duration `yaml:"lockout_window" env:"LOGIN_LOCK_WINDOW" env-default:"15m"`

	RateLimitMax    int           `yaml:"login_rate_limit_max" env:"LOGIN_RATE_LIMIT_MAX" env-default:"10"`
	RateLimitWindow time.Duration `yaml:"login_rate_limit_window" env:"LOGIN_RATE_LIMIT_WINDOW" env-default:"1m"`

	AdminEmail    string `yaml:"-" env:"ADMIN_EMAIL"`
	AdminPassword string `yaml:"-" env:"ADMIN_PASSWORD"`
}

// Load reads the optional YAML file named by CONFIG_PATH and then overrides
// from the environment. Without a file, the environment alone must satisfy
// the required fields.
func Load() (*Config, error) {
	var cfg Config

	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read config from env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return errors.New("both token signing secrets are required")
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return errors.New("token ttls must be positive")
	}
	if c.Auth.MaxAttempts <= 0 {
		return errors.New("max login attempts must be positive")
	}
	if c.Auth.LockWindow <= 0 {
		return errors.New("lockout window must be positive")
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required together")
	}

	return nil
}

// IsProduction controls production-only behavior such as the Secure flag on
// the refresh cookie.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}
