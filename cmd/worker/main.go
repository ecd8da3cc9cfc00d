package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-users-crud/internal/app/api"
	useractivities "github.com/Apurer/go-gin-users-crud/internal/durable/temporal/activities/users"
	userworkflows "github.com/Apurer/go-gin-users-crud/internal/durable/temporal/workflows/users"
	platformobservability "github.com/Apurer/go-gin-users-crud/internal/platform/observability"
)

func main() {
	ctx := context.Background()
	const serviceName = "users-worker"
	cfg, err := api.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, api.ObservabilitySettings(cfg, serviceName))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	store, cleanupStore := api.OpenStore(ctx, cfg, logger)
	defer cleanupStore()
	if store.DB == nil {
		// the API keeps its own in-memory store and creates inline in that case
		logger.Error("worker requires a postgres or mysql store shared with the API", slog.String("driver", store.Driver))
		os.Exit(1)
	}
	userActivities := useractivities.NewActivities(api.NewUserService(store, instruments))

	temporalClient, err := api.ConnectTemporalClient(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, userworkflows.UserCreationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(userworkflows.UserCreationWorkflow, workflow.RegisterOptions{Name: userworkflows.UserCreationWorkflowName})
	w.RegisterActivityWithOptions(userActivities.PersistUser, activity.RegisterOptions{Name: useractivities.PersistUserActivityName})

	logger.Info("worker listening", slog.String("taskQueue", userworkflows.UserCreationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
