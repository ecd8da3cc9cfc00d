package mapper

import (
	"strings"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/application/types"
)

// User represents the transport-level user payload. Pointer fields distinguish
// "not sent" from zero values so partial updates keep stored data.
type User struct {
	ID        *string   `json:"userId,omitempty"`
	Username  *string   `json:"username,omitempty"`
	FirstName *string   `json:"firstName,omitempty"`
	LastName  *string   `json:"lastName,omitempty"`
	Age       *int      `json:"age,omitempty"`
	Pets      *[]string `json:"pets,omitempty"`
}

// UserCount is the count response body.
type UserCount struct {
	NoOfUsers int64 `json:"NoOfUsers"`
}

// ToUserInput converts a transport user into the service input. The id is never
// taken from the payload.
func ToUserInput(model User, idempotencyKey string) *types.UserInput {
	input := &types.UserInput{
		Username:       model.Username,
		FirstName:      model.FirstName,
		LastName:       model.LastName,
		Age:            model.Age,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
	if model.Pets != nil {
		pets := append([]string(nil), (*model.Pets)...)
		input.Pets = &pets
	}
	return input
}

// FromUserView converts a service view into a fully populated transport user.
func FromUserView(view *types.UserView) User {
	if view == nil {
		return User{}
	}
	id, username, firstName, lastName, age := view.ID, view.Username, view.FirstName, view.LastName, view.Age
	pets := append([]string{}, view.Pets...)
	return User{
		ID:        &id,
		Username:  &username,
		FirstName: &firstName,
		LastName:  &lastName,
		Age:       &age,
		Pets:      &pets,
	}
}

// FromUserViews converts a slice of views to transport representation.
func FromUserViews(views []types.UserView) []User {
	result := make([]User, 0, len(views))
	for i := range views {
		result = append(result, FromUserView(&views[i]))
	}
	return result
}
