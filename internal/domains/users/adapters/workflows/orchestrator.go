package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
	useractivities "github.com/Apurer/go-gin-users-crud/internal/durable/temporal/activities/users"
	userworkflows "github.com/Apurer/go-gin-users-crud/internal/durable/temporal/workflows/users"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalUserWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineUserWorkflows)(nil)
)

// TemporalUserWorkflows starts user workflows on a Temporal cluster.
type TemporalUserWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalUserWorkflows wires a Temporal client into the orchestrator.
func NewTemporalUserWorkflows(c client.Client) *TemporalUserWorkflows {
	return &TemporalUserWorkflows{client: c, taskQueue: userworkflows.UserCreationTaskQueue}
}

// CreateUser starts the Temporal workflow that persists a user and waits for its id.
func (o *TemporalUserWorkflows) CreateUser(ctx context.Context, input *types.UserInput) (string, error) {
	if o == nil || o.client == nil {
		return "", errors.New("temporal user workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	idempotencyKey := ""
	if input != nil {
		idempotencyKey = strings.TrimSpace(input.IdempotencyKey)
	}
	workflowID := buildUserCreationWorkflowID(idempotencyKey, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		userworkflows.UserCreationWorkflowName,
		userworkflows.UserCreationWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && idempotencyKey != "" {
			run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
		} else {
			return "", err
		}
	}
	var id string
	if err := run.Get(ctx, &id); err != nil {
		return "", translateWorkflowError(err)
	}
	return id, nil
}

// InlineUserWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineUserWorkflows struct {
	service ports.Service
}

// NewInlineUserWorkflows wraps the users service for synchronous execution.
func NewInlineUserWorkflows(service ports.Service) *InlineUserWorkflows {
	return &InlineUserWorkflows{service: service}
}

// CreateUser delegates to the application service without durable orchestration.
func (o *InlineUserWorkflows) CreateUser(ctx context.Context, input *types.UserInput) (string, error) {
	if o == nil || o.service == nil {
		return "", errors.New("inline user workflows not configured")
	}
	return o.service.CreateUser(ctx, input)
}

// translateWorkflowError restores client errors that crossed the workflow boundary.
func translateWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() == useractivities.ClientErrorType {
		return application.ClientErrorFromMessage(appErr.Message())
	}
	return err
}

func buildUserCreationWorkflowID(idempotencyKey, traceComponent string) string {
	if idempotencyKey != "" {
		return fmt.Sprintf("user-creation-idem-%s", hashIdempotencyKey(idempotencyKey))
	}
	return fmt.Sprintf("user-creation-%d-%s", time.Now().UnixNano(), traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	// first 16 hex chars keep workflow ids readable and deterministic
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
