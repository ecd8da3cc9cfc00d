package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"golang.org/x/sync/errgroup"

	usersserver "github.com/Apurer/go-gin-users-crud/go"
	userobs "github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/observability"
	userworkflows "github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/workflows"
	userapp "github.com/Apurer/go-gin-users-crud/internal/domains/users/application"
	userports "github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
	platformobservability "github.com/Apurer/go-gin-users-crud/internal/platform/observability"
)

// ServiceName identifies the API in traces and logs.
const ServiceName = "users-api"

// ObservabilitySettings maps the process config onto the observability platform.
func ObservabilitySettings(cfg Config, serviceName string) platformobservability.Settings {
	return platformobservability.Settings{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		LogLevel:     cfg.LogLevel,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
	}
}

// Run boots the users HTTP API and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, ObservabilitySettings(cfg, ServiceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	store, cleanupStore := OpenStore(ctx, cfg, logger)
	defer cleanupStore()
	userService := NewUserService(store, instruments)

	workflows, closeWorkflows := NewWorkflowOrchestrator(cfg, store, userService, instruments)
	defer closeWorkflows()

	handler := NewHandler(userService, workflows, cfg, logger)
	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	logger.Info("users API listening", slog.String("addr", listener.Addr().String()))
	if err := Serve(ctx, &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}, listener, cfg.ShutdownTimeout()); err != nil {
		logger.Error("users API server exited", slog.String("error", err.Error()))
		return err
	}
	logger.Info("users API stopped")
	return nil
}

// NewUserService wires the application service with its instrumentation decorator.
func NewUserService(store Store, instruments *platformobservability.Instruments) userports.Service {
	opts := []userapp.Option{}
	if store.Idempotency != nil {
		opts = append(opts, userapp.WithIdempotencyStore(store.Idempotency))
	}
	core := userapp.NewService(store.Repository, opts...)
	return userobs.New(
		core,
		userobs.WithLogger(instruments.EffectiveLogger()),
		userobs.WithTracer(instruments.Tracer("internal.users.application")),
		userobs.WithMeter(instruments.Meter("internal.users.application")),
	)
}

// dialTemporal is swapped in tests to observe whether the API dials Temporal.
var dialTemporal = ConnectTemporalClient

// NewWorkflowOrchestrator picks how creates run. Temporal is used only when the
// store is a shared database the worker can also reach; an in-memory store is
// private to this process, so creates must stay inline.
func NewWorkflowOrchestrator(cfg Config, store Store, service userports.Service, instruments *platformobservability.Instruments) (userports.WorkflowOrchestrator, func()) {
	logger := instruments.EffectiveLogger()
	inline := userworkflows.NewInlineUserWorkflows(service)
	switch {
	case cfg.TemporalDisabled:
		logger.Info("Temporal disabled, running inline CreateUser")
		return inline, func() {}
	case store.DB == nil:
		logger.Info("Temporal skipped for the in-memory store, running inline CreateUser", slog.String("driver", store.Driver))
		return inline, func() {}
	}
	temporalClient, err := dialTemporal(cfg, instruments, "temporal-client")
	if err != nil {
		logger.Warn("Temporal workflows unavailable, running inline CreateUser", slog.String("error", err.Error()))
		return inline, func() {}
	}
	logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	return userworkflows.NewTemporalUserWorkflows(temporalClient), temporalClient.Close
}

// NewHandler builds the gin engine serving the users routes.
func NewHandler(service userports.Service, workflows userports.WorkflowOrchestrator, cfg Config, logger *slog.Logger) http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware(ServiceName), requestLogger(logger))
	handlers := usersserver.ApiHandleFunctions{
		UserAPI: usersserver.NewUserAPI(service, workflows, cfg.LocationBaseURL),
	}
	return usersserver.NewRouterWithGinEngine(engine, handlers)
}

// Serve runs srv on listener until ctx is cancelled, then drains in-flight
// requests for at most shutdownTimeout.
func Serve(ctx context.Context, srv *http.Server, listener net.Listener, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ConnectTemporalClient dials Temporal with tracing and structured logging, unless disabled.
func ConnectTemporalClient(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(tracerName),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.EffectiveLogger()),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogAttrs(c.Request.Context(), slog.LevelInfo, "http request",
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
