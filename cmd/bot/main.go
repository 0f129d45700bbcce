package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/khamraev/truck2terminal/internal/api"
	"github.com/khamraev/truck2terminal/internal/bot"
	"github.com/khamraev/truck2terminal/internal/config"
	"github.com/khamraev/truck2terminal/internal/database"
	"github.com/khamraev/truck2terminal/internal/locale"
	"github.com/khamraev/truck2terminal/internal/logger"
	"github.com/khamraev/truck2terminal/internal/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("truck2terminal: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Profile: cfg.Logging.Profile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	translator, err := locale.New()
	if err != nil {
		return fmt.Errorf("locales: %w", err)
	}

	apiClient := api.New(api.Options{
		BaseURL:     cfg.API.BaseURL,
		Key:         cfg.API.Key,
		RetryBudget: cfg.API.RetryBudget(),
	})

	b := bot.New(cfg, apiClient, store, translator)

	logger.Info(ctx, "app", "starting",
		slog.String("store", cfg.Session.Store),
		slog.String("run_mode", cfg.Telegram.RunMode),
	)
	return b.Run(ctx)
}

// buildStore selects the session store backend from config.
func buildStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Store {
	case config.StorePostgres:
		if err := database.RunMigrations(cfg.Database); err != nil {
			return nil, err
		}
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, err
		}
		return session.NewPostgresStore(db), nil
	case config.StoreSQLite:
		return session.NewSQLiteStore(cfg.Session.SQLitePath)
	default:
		return session.NewMemoryStore(), nil
	}
}
