package users

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
	"github.com/Apurer/go-gin-users-crud/internal/durable/temporal/sequences"
)

const (
	// UserCreationWorkflowName is the public identifier for registering the workflow.
	UserCreationWorkflowName = "users.workflows.Creation"
	// UserCreationTaskQueue is the queue consumed by the worker processing user workflows.
	UserCreationTaskQueue = "USER_CREATION"
)

// UserCreationWorkflowInput captures the payload required to create a user.
type UserCreationWorkflowInput struct {
	Command *types.UserInput
	TraceID string
}

// UserCreationWorkflow orchestrates the activities needed to persist a user and returns its id.
func UserCreationWorkflow(ctx workflow.Context, input UserCreationWorkflowInput) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("UserCreationWorkflow started", withTraceID(input.TraceID)...)
	id, err := sequences.RunUserPersistenceSequence(ctx, input.Command)
	if err != nil {
		logger.Error("UserCreationWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return "", err
	}
	logger.Info("UserCreationWorkflow completed", withTraceID(input.TraceID, "userId", id)...)
	return id, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
