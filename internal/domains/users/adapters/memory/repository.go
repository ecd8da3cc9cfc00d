package memory

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/google/uuid"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/domain"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory user store used for demos, tests and as a fallback
// when no database is configured.
type Repository struct {
	mu         sync.RWMutex
	users      map[string]*domain.User
	byUsername map[string]string
	newID      func() string
}

// NewRepository constructs an empty in-memory store.
func NewRepository() *Repository {
	return &Repository{
		users:      map[string]*domain.User{},
		byUsername: map[string]string{},
		newID:      uuid.NewString,
	}
}

// WithIDGenerator overrides the identifier source for deterministic testing.
func (r *Repository) WithIDGenerator(newID func() string) {
	if newID != nil {
		r.newID = newID
	}
}

// Save inserts or replaces a user, enforcing username uniqueness.
func (r *Repository) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	clone := user.Clone()
	if err := clone.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byUsername[clone.Username]; ok && owner != clone.ID {
		return nil, ports.ErrConflict
	}
	if clone.ID == "" {
		clone.ID = r.newID()
	}
	if previous, ok := r.users[clone.ID]; ok && previous.Username != clone.Username {
		delete(r.byUsername, previous.Username)
	}
	r.users[clone.ID] = clone
	r.byUsername[clone.Username] = clone.ID
	return clone.Clone(), nil
}

// FindByID fetches a user if present.
func (r *Repository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return user.Clone(), nil
}

// FindAll yields a snapshot of the users taken when iteration starts.
func (r *Repository) FindAll(_ context.Context) iter.Seq2[*domain.User, error] {
	return func(yield func(*domain.User, error) bool) {
		for _, user := range r.snapshot(nil) {
			if !yield(user, nil) {
				return
			}
		}
	}
}

// DeleteByID removes a user; unknown ids are ignored.
func (r *Repository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		delete(r.byUsername, user.Username)
		delete(r.users, id)
	}
	return nil
}

// Count returns the number of stored users.
func (r *Repository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

// CountByAgeAtMost counts users whose age is less than or equal to maxAge.
func (r *Repository) CountByAgeAtMost(_ context.Context, maxAge int) (int64, error) {
	matches := r.snapshot(func(u *domain.User) bool { return u.Age <= maxAge })
	return int64(len(matches)), nil
}

// FindByPetName returns users whose pet set contains name.
func (r *Repository) FindByPetName(_ context.Context, name string) ([]*domain.User, error) {
	return r.snapshot(func(u *domain.User) bool { return u.Pets.Contains(name) }), nil
}

func (r *Repository) snapshot(match func(*domain.User) bool) []*domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.User, 0, len(r.users))
	for _, user := range r.users {
		if match == nil || match(user) {
			list = append(list, user.Clone())
		}
	}
	return list
}
