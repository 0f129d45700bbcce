package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc", RunMode: "longpoll"},
		API:      APIConfig{BaseURL: "https://api.example.com/"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if cfg.API.BaseURL != "https://api.example.com" {
		t.Fatalf("base url not trimmed: %q", cfg.API.BaseURL)
	}
	if cfg.API.RetryBudgetSeconds != 60 {
		t.Fatalf("retry budget default = %d, want 60", cfg.API.RetryBudgetSeconds)
	}
	if cfg.Session.Store != StoreMemory {
		t.Fatalf("store default = %q, want memory", cfg.Session.Store)
	}
	if cfg.Session.WizardTimeoutSeconds != 300 {
		t.Fatalf("wizard timeout default = %d, want 300", cfg.Session.WizardTimeoutSeconds)
	}
	if cfg.Session.FreshnessSeconds != 60 {
		t.Fatalf("freshness default = %d, want 60", cfg.Session.FreshnessSeconds)
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "Polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Telegram.Token = "" },
			wantSub: "token",
		},
		{
			name:    "missing api base url",
			mutate:  func(c *Config) { c.API.BaseURL = "" },
			wantSub: "base_url",
		},
		{
			name:    "unknown run mode",
			mutate:  func(c *Config) { c.Telegram.RunMode = "carrier-pigeon" },
			wantSub: "run_mode",
		},
		{
			name: "webhook without url",
			mutate: func(c *Config) {
				c.Telegram.RunMode = "webhook"
				c.Webhook.Listen = "0.0.0.0"
				c.Webhook.Port = 8443
			},
			wantSub: "webhook.url",
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.Session.Store = "redis" },
			wantSub: "session.store",
		},
		{
			name:    "postgres store without host",
			mutate:  func(c *Config) { c.Session.Store = "postgres" },
			wantSub: "database.host",
		},
		{
			name:    "sqlite store without path",
			mutate:  func(c *Config) { c.Session.Store = "sqlite" },
			wantSub: "sqlite_path",
		},
		{
			name:    "negative wizard timeout",
			mutate:  func(c *Config) { c.Session.WizardTimeoutSeconds = -1 },
			wantSub: "wizard_timeout_seconds",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.RateLimit.IntervalMS = -5 },
			wantSub: "interval_ms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := Normalize(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := cfg.API.RetryBudget().Seconds(); got != 60 {
		t.Fatalf("retry budget = %vs", got)
	}
	if got := cfg.Session.WizardTimeout().Seconds(); got != 300 {
		t.Fatalf("wizard timeout = %vs", got)
	}
	if got := cfg.Session.Freshness().Seconds(); got != 60 {
		t.Fatalf("freshness = %vs", got)
	}
}
