// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT"` // json|console
	Sampling bool   `yaml:"sampling"`                // enable sampling in prod
}

type HTTPConfig struct {
	Port            int           `yaml:"port" env:"HTTP_PORT"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER"` // optional; checked when set
}

type DatabaseConfig struct {
	URL         string `yaml:"url" env:"DATABASE_URL"`
	MaxConns    int32  `yaml:"max_conns"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"DATABASE_AUTO_MIGRATE"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" env:"REDIS_URL"` // empty disables cache, rate limit and lock
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AccessConfig struct {
	EvaluateTimeout  time.Duration `yaml:"evaluate_timeout"`
	ExpiringSoonDays int           `yaml:"expiring_soon_days"`
	BulkConcurrency  int           `yaml:"bulk_concurrency"`
	DefaultLocale    string        `yaml:"default_locale" env:"DEFAULT_LOCALE"`
}

type PaymentConfig struct {
	RejectDuplicatePending bool `yaml:"reject_duplicate_pending"`
	CreateLimitPerHour     int  `yaml:"create_limit_per_hour"`
	PendingPageSize        int  `yaml:"pending_page_size"`
}

type StorageConfig struct {
	Dir           string `yaml:"dir" env:"RECEIPTS_DIR"`
	PublicBaseURL string `yaml:"public_base_url" env:"RECEIPTS_BASE_URL"`
	MaxBytes      int64  `yaml:"max_bytes"`
}

type SweeperConfig struct {
	Interval       time.Duration `yaml:"interval"`
	SkipStartupRun bool          `yaml:"skip_startup_run"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
}

type ReminderConfig struct {
	Interval       time.Duration `yaml:"interval"`
	ThresholdsDays []int         `yaml:"thresholds_days"`
}

type TelegramConfig struct {
	Token        string  `yaml:"token" env:"TELEGRAM_TOKEN"` // empty falls back to the log notifier
	AdminChatIDs []int64 `yaml:"admin_chat_ids"`
	Workers      int     `yaml:"workers"`
}

type Config struct {
	Log       LogConfig      `yaml:"log"`
	HTTP      HTTPConfig     `yaml:"http"`
	Auth      AuthConfig     `yaml:"auth"`
	Database  DatabaseConfig `yaml:"database"`
	Redis     RedisConfig    `yaml:"redis"`
	Access    AccessConfig   `yaml:"access"`
	Payment   PaymentConfig  `yaml:"payment"`
	Storage   StorageConfig  `yaml:"storage"`
	Sweeper   SweeperConfig  `yaml:"sweeper"`
	Reminders ReminderConfig `yaml:"reminders"`
	Telegram  TelegramConfig `yaml:"telegram"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path (a missing file is fine when the
// environment carries everything), applies env overrides and fills defaults.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	cfg.HTTP.RequestTimeout = orDuration(cfg.HTTP.RequestTimeout, 15*time.Second)
	cfg.HTTP.ShutdownTimeout = orDuration(cfg.HTTP.ShutdownTimeout, 10*time.Second)
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = orDuration(cfg.Redis.TTL, time.Hour)

	cfg.Access.EvaluateTimeout = orDuration(cfg.Access.EvaluateTimeout, 3*time.Second)
	if cfg.Access.ExpiringSoonDays <= 0 {
		cfg.Access.ExpiringSoonDays = 7
	}
	if cfg.Access.BulkConcurrency <= 0 {
		cfg.Access.BulkConcurrency = 8
	}
	if cfg.Access.DefaultLocale == "" {
		cfg.Access.DefaultLocale = "en"
	}

	if cfg.Payment.CreateLimitPerHour <= 0 {
		cfg.Payment.CreateLimitPerHour = 10
	}
	if cfg.Payment.PendingPageSize <= 0 {
		cfg.Payment.PendingPageSize = 100
	}

	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "./data/receipts"
	}
	if cfg.Storage.MaxBytes <= 0 {
		cfg.Storage.MaxBytes = 5 << 20
	}

	cfg.Sweeper.Interval = orDuration(cfg.Sweeper.Interval, time.Hour)
	cfg.Sweeper.LockTTL = orDuration(cfg.Sweeper.LockTTL, 5*time.Minute)

	cfg.Reminders.Interval = orDuration(cfg.Reminders.Interval, 6*time.Hour)
	if len(cfg.Reminders.ThresholdsDays) == 0 {
		cfg.Reminders.ThresholdsDays = []int{7, 1}
	}

	if cfg.Telegram.Workers <= 0 {
		cfg.Telegram.Workers = 2
	}
}

func orDuration(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
