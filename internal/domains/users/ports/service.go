package ports

import (
	"context"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
)

// Service exposes user use cases to adapters.
type Service interface {
	CreateUser(ctx context.Context, input *types.UserInput) (string, error)
	UserCount(ctx context.Context) (int64, error)
	UserCountAtMostAge(ctx context.Context, maxAge int) (int64, error)
	ListUsers(ctx context.Context) ([]types.UserView, error)
	GetUser(ctx context.Context, id string) (*types.UserView, error)
	ListUsersByPet(ctx context.Context, petName string) ([]types.UserView, error)
	UpdateUser(ctx context.Context, id string, input *types.UserInput) (bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
}
