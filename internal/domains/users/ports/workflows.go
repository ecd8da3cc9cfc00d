package ports

import (
	"context"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
)

// WorkflowOrchestrator runs user creation either inline or on a durable workflow engine.
type WorkflowOrchestrator interface {
	CreateUser(ctx context.Context, input *types.UserInput) (string, error)
}
