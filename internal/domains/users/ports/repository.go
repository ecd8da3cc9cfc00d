package ports

import (
	"context"
	"errors"
	"iter"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/domain"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrConflict is reported by stores when a uniqueness constraint (the username) is violated.
	ErrConflict = errors.New("user uniqueness constraint violated")
)

// Repository is the document-store contract backing the users service.
type Repository interface {
	// Save inserts the user when its ID is empty (assigning one) or replaces the stored record.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindAll streams every stored user. Each call starts a fresh sequence.
	FindAll(ctx context.Context) iter.Seq2[*domain.User, error]
	// DeleteByID removes the user if present; deleting an unknown id is not an error.
	DeleteByID(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountByAgeAtMost(ctx context.Context, maxAge int) (int64, error)
	FindByPetName(ctx context.Context, name string) ([]*domain.User, error)
}
