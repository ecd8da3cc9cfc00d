package users

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
)

const (
	// PersistUserActivityName persists a new user record.
	PersistUserActivityName = "users.activities.PersistUser"
	// ClientErrorType tags application errors the caller must fix; they are never retried.
	ClientErrorType = "ClientError"
)

// Activities groups activities that operate on the users bounded context.
type Activities struct {
	service ports.Service
}

// NewActivities wires the users service into the Temporal activities bundle.
func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// PersistUser stores a new user and returns its id.
func (a *Activities) PersistUser(ctx context.Context, input *types.UserInput) (string, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("user persist activity not initialized")
		return "", errors.New("user persist activity not initialized")
	}
	logger.Info("PersistUser activity started")
	id, err := a.service.CreateUser(ctx, input)
	if err != nil {
		if errors.Is(err, application.ErrClient) {
			logger.Warn("PersistUser rejected input", "error", err)
			return "", temporal.NewNonRetryableApplicationError(err.Error(), ClientErrorType, err)
		}
		logger.Error("PersistUser activity failed", "error", err)
		return "", err
	}
	logger.Info("PersistUser activity completed", "userId", id)
	return id, nil
}
