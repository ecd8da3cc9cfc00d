package api

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	usermemory "github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/memory"
	usermysql "github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/persistence/mysql"
	userpostgres "github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/persistence/postgres"
	userports "github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
	"github.com/Apurer/go-gin-users-crud/internal/platform/migrations"
	platformmysql "github.com/Apurer/go-gin-users-crud/internal/platform/mysql"
	platformpostgres "github.com/Apurer/go-gin-users-crud/internal/platform/postgres"
)

// Store bundles the persistence adapters selected by configuration.
type Store struct {
	Driver      string
	DB          *gorm.DB
	Repository  userports.Repository
	Idempotency userports.IdempotencyStore
}

// OpenStore connects the configured driver and returns the adapters plus a cleanup
// function. A database that cannot be reached falls back to the in-memory store.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (Store, func()) {
	store := Store{Driver: DriverMemory}
	cleanup := func() {}

	switch cfg.Driver() {
	case DriverPostgres:
		if db, closeDB := platformpostgres.ConnectWithFallback(ctx, cfg.PostgresDSN, logger); db != nil {
			store = Store{Driver: DriverPostgres, DB: db, Repository: userpostgres.NewRepository(db)}
			if cfg.IdempotencyEnabled {
				store.Idempotency = userpostgres.NewIdempotencyStore(db)
			}
			cleanup = closeDB
		}
	case DriverMySQL:
		if db, closeDB := platformmysql.ConnectWithFallback(ctx, cfg.MySQLDSN, logger); db != nil {
			store = Store{Driver: DriverMySQL, DB: db, Repository: usermysql.NewRepository(db)}
			if cfg.IdempotencyEnabled {
				logger.Warn("mysql driver keeps idempotency keys in memory")
			}
			cleanup = closeDB
		}
	}

	if store.DB != nil && cfg.AutoMigrate {
		if err := migrations.Run(store.DB); err != nil {
			logger.Warn("failed to apply users schema", slog.String("driver", store.Driver), slog.String("error", err.Error()))
		}
	}

	if store.Repository == nil {
		store.Repository = usermemory.NewRepository()
	}
	if cfg.IdempotencyEnabled && store.Idempotency == nil {
		store.Idempotency = usermemory.NewIdempotencyStore()
	}
	logger.Info("user repository configured", slog.String("driver", store.Driver))
	return store, cleanup
}
