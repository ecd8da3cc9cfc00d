package workflows

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/adapters/memory"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
	useractivities "github.com/Apurer/go-gin-users-crud/internal/durable/temporal/activities/users"
)

func TestInlineUserWorkflows_DelegatesToService(t *testing.T) {
	orchestrator := NewInlineUserWorkflows(application.NewService(memory.NewRepository()))
	username := "alice"

	id, err := orchestrator.CreateUser(context.Background(), &types.UserInput{Username: &username})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = orchestrator.CreateUser(context.Background(), nil)
	require.ErrorIs(t, err, application.ErrInvalidInput)

	var unset *InlineUserWorkflows
	_, err = unset.CreateUser(context.Background(), nil)
	require.Error(t, err)
}

func TestTranslateWorkflowError(t *testing.T) {
	clientErr := temporal.NewNonRetryableApplicationError(application.ErrUsernameTaken.Error(), useractivities.ClientErrorType, nil)
	err := translateWorkflowError(clientErr)
	require.ErrorIs(t, err, application.ErrClient)
	require.ErrorIs(t, err, application.ErrUsernameTaken)

	other := errors.New("workflow timed out")
	require.Equal(t, other, translateWorkflowError(other))
}

func TestBuildUserCreationWorkflowID(t *testing.T) {
	first := buildUserCreationWorkflowID("key-1", "trace")
	require.Equal(t, first, buildUserCreationWorkflowID("key-1", "other-trace"))
	require.True(t, strings.HasPrefix(first, "user-creation-idem-"))
	require.Len(t, strings.TrimPrefix(first, "user-creation-idem-"), 16)

	anonymous := buildUserCreationWorkflowID("", "trace")
	require.True(t, strings.HasSuffix(anonymous, "-trace"))
}

func TestWorkflowTraceComponent(t *testing.T) {
	require.True(t, strings.HasPrefix(workflowTraceComponent(context.Background()), "fallback-"))

	traceID, err := oteltrace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := oteltrace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	ctx := oteltrace.ContextWithSpanContext(context.Background(), oteltrace.NewSpanContext(oteltrace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))
	require.Equal(t, traceID.String(), workflowTraceComponent(ctx))
}
