package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/Apurer/go-gin-users-crud/internal/app/api"
	"github.com/Apurer/go-gin-users-crud/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-users-crud/internal/platform/observability"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := api.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.AutoMigrate = false
	logger := platformobservability.NewLogger(os.Stdout, cfg.LogLevel)

	store, cleanup := api.OpenStore(ctx, cfg, logger)
	defer cleanup()
	if store.DB == nil {
		log.Fatalf("store driver %q has no reachable database; nothing to migrate", cfg.Driver())
	}
	if err := migrations.Run(store.DB); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}
	logger.Info("schema applied")
}
