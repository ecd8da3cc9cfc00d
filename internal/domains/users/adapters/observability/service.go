package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
)

const tracerName = "github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/observability/service"

// Service decorates the users application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// CreateUser records a span and the created counter around user creation.
func (s *Service) CreateUser(ctx context.Context, input *types.UserInput) (string, error) {
	attrs := []attribute.KeyValue{}
	if input != nil && input.IdempotencyKey != "" {
		attrs = append(attrs, attribute.Bool("user.idempotent", true))
	}
	ctx, span := s.startSpan(ctx, "UserService.CreateUser", attrs...)
	defer span.End()

	id, err := s.inner.CreateUser(ctx, input)
	if err != nil {
		return "", s.handleError(ctx, span, err, "failed to create user")
	}
	span.SetAttributes(attribute.String("user.id", id))
	s.metrics.recordCreated(ctx)
	s.logInfo(ctx, "user created", slog.String("user.id", id))
	return id, nil
}

func (s *Service) UserCount(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "UserService.UserCount")
	defer span.End()

	count, err := s.inner.UserCount(ctx)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to count users")
	}
	span.SetAttributes(attribute.Int64("user.result.count", count))
	return count, nil
}

func (s *Service) UserCountAtMostAge(ctx context.Context, maxAge int) (int64, error) {
	ctx, span := s.startSpan(ctx, "UserService.UserCountAtMostAge", attribute.Int("user.max_age", maxAge))
	defer span.End()

	count, err := s.inner.UserCountAtMostAge(ctx, maxAge)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "failed to count users by age", slog.Int("max_age", maxAge))
	}
	span.SetAttributes(attribute.Int64("user.result.count", count))
	return count, nil
}

// ListUsers lists all users.
func (s *Service) ListUsers(ctx context.Context) ([]types.UserView, error) {
	ctx, span := s.startSpan(ctx, "UserService.ListUsers")
	defer span.End()

	result, err := s.inner.ListUsers(ctx)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list users")
	}
	span.SetAttributes(attribute.Int("user.result.count", len(result)))
	s.logInfo(ctx, "listed users", slog.Int("count", len(result)))
	return result, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*types.UserView, error) {
	ctx, span := s.startSpan(ctx, "UserService.GetUser", attribute.String("user.id", id))
	defer span.End()

	view, err := s.inner.GetUser(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get user", slog.String("user.id", id))
	}
	return view, nil
}

func (s *Service) ListUsersByPet(ctx context.Context, petName string) ([]types.UserView, error) {
	ctx, span := s.startSpan(ctx, "UserService.ListUsersByPet", attribute.String("user.pet_name", petName))
	defer span.End()

	result, err := s.inner.ListUsersByPet(ctx, petName)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list users by pet", slog.String("pet", petName))
	}
	span.SetAttributes(attribute.Int("user.result.count", len(result)))
	return result, nil
}

// UpdateUser applies a partial update with instrumentation.
func (s *Service) UpdateUser(ctx context.Context, id string, input *types.UserInput) (bool, error) {
	ctx, span := s.startSpan(ctx, "UserService.UpdateUser", attribute.String("user.id", id))
	defer span.End()

	updated, err := s.inner.UpdateUser(ctx, id, input)
	if err != nil {
		return false, s.handleError(ctx, span, err, "failed to update user", slog.String("user.id", id))
	}
	if updated {
		s.metrics.recordUpdated(ctx)
		s.logInfo(ctx, "user updated", slog.String("user.id", id))
	}
	return updated, nil
}

// DeleteUser removes a user with instrumentation.
func (s *Service) DeleteUser(ctx context.Context, id string) (bool, error) {
	ctx, span := s.startSpan(ctx, "UserService.DeleteUser", attribute.String("user.id", id))
	defer span.End()

	deleted, err := s.inner.DeleteUser(ctx, id)
	if err != nil {
		return false, s.handleError(ctx, span, err, "failed to delete user", slog.String("user.id", id))
	}
	if deleted {
		s.metrics.recordDeleted(ctx)
		s.logInfo(ctx, "user deleted", slog.String("user.id", id))
	}
	return deleted, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// handleError records failures. Client errors are expected outcomes and only
// logged at warn level; everything else marks the span as failed.
func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	attrs = append(attrs, slog.String("error", err.Error()))
	if errors.Is(err, application.ErrClient) {
		span.AddEvent("client error", trace.WithAttributes(attribute.String("error.message", err.Error())))
		s.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	return err
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

type serviceMetrics struct {
	usersCreated metric.Int64Counter
	usersUpdated metric.Int64Counter
	usersDeleted metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("users.service.created", metric.WithDescription("Number of users created"))
	updated, _ := m.Int64Counter("users.service.updated", metric.WithDescription("Number of users updated"))
	deleted, _ := m.Int64Counter("users.service.deleted", metric.WithDescription("Number of users deleted"))
	return serviceMetrics{usersCreated: created, usersUpdated: updated, usersDeleted: deleted}
}

func (m serviceMetrics) recordCreated(ctx context.Context) {
	if m.usersCreated != nil {
		m.usersCreated.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordUpdated(ctx context.Context) {
	if m.usersUpdated != nil {
		m.usersUpdated.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordDeleted(ctx context.Context) {
	if m.usersDeleted != nil {
		m.usersDeleted.Add(ctx, 1)
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var _ ports.Service = (*Service)(nil)
