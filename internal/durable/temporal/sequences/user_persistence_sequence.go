package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
	useractivities "github.com/Apurer/go-gin-users-crud/internal/durable/temporal/activities/users"
)

// RunUserPersistenceSequence executes the activities needed to persist a user.
func RunUserPersistenceSequence(ctx workflow.Context, input *types.UserInput) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("user persistence sequence started")
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: []string{useractivities.ClientErrorType},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var id string
	if err := workflow.ExecuteActivity(ctx, useractivities.PersistUserActivityName, input).Get(ctx, &id); err != nil {
		logger.Error("user persistence sequence failed", "error", err)
		return "", err
	}
	logger.Info("user persistence sequence completed", "userId", id)
	return id, nil
}
