package application

import (
	"context"
	"errors"
	"strings"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/domain"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
)

// Service orchestrates the users use cases.
type Service struct {
	repo        ports.Repository
	idempotency ports.IdempotencyStore
}

// Option configures optional collaborators of the service.
type Option func(*Service)

// WithIdempotencyStore enables replay-safe creates keyed by UserInput.IdempotencyKey.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) { s.idempotency = store }
}

// NewService wires the users service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{repo: repo}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateUser validates and persists a new user, returning the store-assigned id.
func (s *Service) CreateUser(ctx context.Context, input *types.UserInput) (string, error) {
	if input == nil {
		return "", clientError(ErrInvalidInput)
	}
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || s.idempotency == nil {
		return s.create(ctx, *input)
	}
	return s.createIdempotent(ctx, key, *input)
}

func (s *Service) create(ctx context.Context, input types.UserInput) (string, error) {
	user, err := buildUser(input)
	if err != nil {
		return "", mapError(err)
	}
	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		return "", mapError(err)
	}
	return saved.ID, nil
}

func (s *Service) createIdempotent(ctx context.Context, key string, input types.UserInput) (string, error) {
	fingerprint, err := FingerprintCreateUser(input)
	if err != nil {
		return "", err
	}
	claim, claimed, err := s.idempotency.Claim(ctx, key, fingerprint)
	if err != nil {
		return "", mapError(err)
	}
	if !claimed {
		if claim.Pending() {
			return "", clientError(ErrIdempotencyInFlight)
		}
		return claim.UserID, nil
	}

	id, err := s.create(ctx, input)
	if err != nil {
		return "", errors.Join(err, s.idempotency.Release(ctx, key))
	}
	if err := s.idempotency.Complete(ctx, key, id); err != nil {
		// the key no longer guards this insert, so undo it
		undo := errors.Join(s.repo.DeleteByID(ctx, id), s.idempotency.Release(ctx, key))
		return "", errors.Join(mapError(err), undo)
	}
	return id, nil
}

// UserCount returns the total number of stored users.
func (s *Service) UserCount(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// UserCountAtMostAge returns the number of users whose age is at most maxAge.
func (s *Service) UserCountAtMostAge(ctx context.Context, maxAge int) (int64, error) {
	count, err := s.repo.CountByAgeAtMost(ctx, maxAge)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// ListUsers returns every user. An empty result means there is nothing to return.
func (s *Service) ListUsers(ctx context.Context) ([]types.UserView, error) {
	views := []types.UserView{}
	for user, err := range s.repo.FindAll(ctx) {
		if err != nil {
			return nil, mapError(err)
		}
		if view := types.NewUserView(user); view != nil {
			views = append(views, *view)
		}
	}
	return views, nil
}

// GetUser loads a single user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*types.UserView, error) {
	if isBlank(id) {
		return nil, clientError(ErrEmptyID)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return types.NewUserView(user), nil
}

// ListUsersByPet returns the users owning a pet with the given name.
func (s *Service) ListUsersByPet(ctx context.Context, petName string) ([]types.UserView, error) {
	users, err := s.repo.FindByPetName(ctx, petName)
	if err != nil {
		return nil, mapError(err)
	}
	return types.NewUserViews(users), nil
}

// UpdateUser applies a partial update: nil fields keep the stored value, a
// non-nil pets collection replaces the stored set.
func (s *Service) UpdateUser(ctx context.Context, id string, input *types.UserInput) (bool, error) {
	if isBlank(id) {
		return false, clientError(ErrEmptyID)
	}
	if input == nil {
		return false, clientError(ErrNullContext)
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false, mapError(err)
	}
	applyPartialUpdate(existing, *input)
	if _, err := s.repo.Save(ctx, existing); err != nil {
		return false, mapError(err)
	}
	return true, nil
}

// DeleteUser removes a user by id. Deleting an unknown id succeeds.
func (s *Service) DeleteUser(ctx context.Context, id string) (bool, error) {
	if isBlank(id) {
		return false, clientError(ErrEmptyID)
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return false, mapError(err)
	}
	return true, nil
}

func buildUser(input types.UserInput) (*domain.User, error) {
	var username string
	if input.Username != nil {
		username = *input.Username
	}
	user, err := domain.NewUser(username)
	if err != nil {
		return nil, err
	}
	applyPartialUpdate(user, input)
	return user, nil
}

func applyPartialUpdate(target *domain.User, input types.UserInput) {
	if input.Username != nil && !isBlank(*input.Username) {
		_ = target.SetUsername(*input.Username)
	}
	firstName, lastName := target.FirstName, target.LastName
	if input.FirstName != nil {
		firstName = *input.FirstName
	}
	if input.LastName != nil {
		lastName = *input.LastName
	}
	target.UpdateProfile(firstName, lastName)
	if input.Age != nil {
		target.UpdateAge(*input.Age)
	}
	if input.Pets != nil {
		target.ReplacePets(*input.Pets)
	}
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

var _ ports.Service = (*Service)(nil)
