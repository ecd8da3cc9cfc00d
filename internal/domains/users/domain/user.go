package domain

import (
	"errors"
	"sort"
	"strings"
)

var ErrEmptyUsername = errors.New("username is required")

// PetSet holds the names of a user's pets without duplicates.
type PetSet map[string]struct{}

// NewPetSet builds a set from the given names, collapsing duplicates.
func NewPetSet(names ...string) PetSet {
	set := make(PetSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Contains reports whether name is part of the set.
func (s PetSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members sorted alphabetically.
func (s PetSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the set.
func (s PetSet) Clone() PetSet {
	clone := make(PetSet, len(s))
	for name := range s {
		clone[name] = struct{}{}
	}
	return clone
}

// User is the persisted user record.
type User struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Age       int
	Pets      PetSet
}

// NewUser builds a user ensuring the username invariant. The id is left
// empty so the store can assign it.
func NewUser(username string) (*User, error) {
	user := &User{Pets: PetSet{}}
	if err := user.SetUsername(username); err != nil {
		return nil, err
	}
	return user, nil
}

// SetUsername rejects blank usernames and otherwise stores the value as given.
func (u *User) SetUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrEmptyUsername
	}
	u.Username = username
	return nil
}

// UpdateProfile replaces the optional name fields.
func (u *User) UpdateProfile(firstName, lastName string) {
	u.FirstName = firstName
	u.LastName = lastName
}

// UpdateAge sets the user's age.
func (u *User) UpdateAge(age int) {
	u.Age = age
}

// ReplacePets swaps the whole pet set for the given names.
func (u *User) ReplacePets(names []string) {
	u.Pets = NewPetSet(names...)
}

// Clone returns a deep copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Pets = u.Pets.Clone()
	return &clone
}

// Validate re-checks core invariants before persistence.
func (u *User) Validate() error {
	if err := u.SetUsername(u.Username); err != nil {
		return err
	}
	if u.Pets == nil {
		u.Pets = PetSet{}
	}
	return nil
}
