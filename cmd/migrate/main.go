package main

import (
	"fmt"
	"os"

	"relaypanel/internal/config"
	"relaypanel/internal/database"
	"relaypanel/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.DBName, err)
	}

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Schema is up to date")
	return nil
}
