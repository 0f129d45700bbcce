// Package config loads bot configuration from a YAML file with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

// Session store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// APIConfig describes the backend REST API the bot relays data to.
type APIConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"API_BASE_URL"`
	Key     string `yaml:"key" envconfig:"API_KEY"`
	// RetryBudgetSeconds bounds the total time spent retrying one request.
	RetryBudgetSeconds int `yaml:"retry_budget_seconds" envconfig:"API_RETRY_BUDGET_SECONDS"`
}

// SessionConfig controls session storage and wizard lifecycle.
type SessionConfig struct {
	Store string `yaml:"store" envconfig:"SESSION_STORE"`
	// WizardTimeoutSeconds is the inactivity window before a wizard is auto-cancelled.
	WizardTimeoutSeconds int `yaml:"wizard_timeout_seconds" envconfig:"SESSION_WIZARD_TIMEOUT_SECONDS"`
	// FreshnessSeconds is the live-location staleness threshold.
	FreshnessSeconds int    `yaml:"freshness_seconds" envconfig:"SESSION_FRESHNESS_SECONDS"`
	SQLitePath       string `yaml:"sqlite_path" envconfig:"SESSION_SQLITE_PATH"`
}

// DatabaseConfig holds Postgres connection settings for the persistent session store.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Profile string `yaml:"profile"`
}

// RateLimitConfig holds settings for per-user rate limiting.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
}

// Config aggregates all bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RetryBudget returns the API retry budget as a duration.
func (c *APIConfig) RetryBudget() time.Duration {
	return time.Duration(c.RetryBudgetSeconds) * time.Second
}

// WizardTimeout returns the wizard inactivity window as a duration.
func (c *SessionConfig) WizardTimeout() time.Duration {
	return time.Duration(c.WizardTimeoutSeconds) * time.Second
}

// Freshness returns the live-location staleness threshold as a duration.
func (c *SessionConfig) Freshness() time.Duration {
	return time.Duration(c.FreshnessSeconds) * time.Second
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.API.RetryBudgetSeconds < 0 {
		return fmt.Errorf("api.retry_budget_seconds must be >= 0")
	}
	if cfg.API.RetryBudgetSeconds == 0 {
		cfg.API.RetryBudgetSeconds = 60
	}

	store := strings.ToLower(strings.TrimSpace(cfg.Session.Store))
	if store == "" {
		store = StoreMemory
	}
	switch store {
	case StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" {
			return fmt.Errorf("database.host is required when session.store is 'postgres'")
		}
	case StoreSQLite:
		if strings.TrimSpace(cfg.Session.SQLitePath) == "" {
			return fmt.Errorf("session.sqlite_path is required when session.store is 'sqlite'")
		}
	default:
		return fmt.Errorf("invalid session.store %q; allowed: memory, postgres, sqlite", cfg.Session.Store)
	}
	cfg.Session.Store = store

	if cfg.Session.WizardTimeoutSeconds < 0 {
		return fmt.Errorf("session.wizard_timeout_seconds must be >= 0")
	}
	if cfg.Session.WizardTimeoutSeconds == 0 {
		cfg.Session.WizardTimeoutSeconds = 300
	}
	if cfg.Session.FreshnessSeconds < 0 {
		return fmt.Errorf("session.freshness_seconds must be >= 0")
	}
	if cfg.Session.FreshnessSeconds == 0 {
		cfg.Session.FreshnessSeconds = 60
	}

	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}

	return nil
}
