package types

import "github.com/Apurer/go-gin-users-crud/internal/domains/users/domain"

// UserInput is the transfer representation accepted by the users use cases.
// A nil field means "not supplied".
type UserInput struct {
	// ID is ignored on write; the store assigns identifiers.
	ID        string
	Username  *string
	FirstName *string
	LastName  *string
	Age       *int
	Pets      *[]string
	// IdempotencyKey deduplicates retried create requests when set.
	IdempotencyKey string
}

// UserView is the transfer representation returned by the users use cases.
type UserView struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Age       int
	Pets      []string
}

// NewUserView maps a persisted user into its transfer representation.
func NewUserView(user *domain.User) *UserView {
	if user == nil {
		return nil
	}
	return &UserView{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Age:       user.Age,
		Pets:      user.Pets.Names(),
	}
}

// NewUserViews maps a slice of persisted users. The result is never nil.
func NewUserViews(users []*domain.User) []UserView {
	result := make([]UserView, 0, len(users))
	for _, user := range users {
		if view := NewUserView(user); view != nil {
			result = append(result, *view)
		}
	}
	return result
}
