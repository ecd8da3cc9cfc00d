package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/domain"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
)

// ErrClient marks caller-correctable failures. Every *ClientError matches it via errors.Is.
var ErrClient = errors.New("client error")

var (
	// ErrInvalidInput signals a create request without a user payload.
	ErrInvalidInput = errors.New("the user sign up context cannot be empty")
	// ErrNullContext signals an update request without a user payload.
	ErrNullContext = errors.New("the update context cannot be empty")
	ErrEmptyID     = errors.New("the userId cannot be empty")
	// ErrUserNotFound is the client-facing form of ports.ErrNotFound.
	ErrUserNotFound = errors.New("no user exists with that id")
	// ErrUsernameTaken is the client-facing form of ports.ErrConflict.
	ErrUsernameTaken       = errors.New("a user with the same username already exists")
	ErrIdempotencyConflict = errors.New("idempotency key was already used with a different payload")
	ErrIdempotencyInFlight = errors.New("a request with the same idempotency key is still being processed")
)

var clientSentinels = []error{
	ErrInvalidInput,
	ErrNullContext,
	ErrEmptyID,
	ErrUserNotFound,
	ErrUsernameTaken,
	ErrIdempotencyConflict,
	ErrIdempotencyInFlight,
	domain.ErrEmptyUsername,
}

// ClientError wraps a caller-correctable failure. Its message is safe to return to clients.
type ClientError struct {
	Err error
}

func (e *ClientError) Error() string {
	if e == nil || e.Err == nil {
		return ErrClient.Error()
	}
	return e.Err.Error()
}

func (e *ClientError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrClient) match any client error.
func (e *ClientError) Is(target error) bool { return target == ErrClient }

func clientError(err error) error {
	return &ClientError{Err: err}
}

// ClientErrorFromMessage rebuilds a client error from its message, restoring the
// known sentinel when one matches. Used when errors cross a serialization boundary.
func ClientErrorFromMessage(msg string) error {
	for _, sentinel := range clientSentinels {
		if sentinel.Error() == msg {
			return clientError(sentinel)
		}
	}
	return clientError(errors.New(msg))
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrClient) {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrEmptyUsername):
		return clientError(err)
	case errors.Is(err, ports.ErrConflict):
		return clientError(ErrUsernameTaken)
	case errors.Is(err, ports.ErrNotFound):
		return clientError(ErrUserNotFound)
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return clientError(ErrIdempotencyConflict)
	}
	return fmt.Errorf("users storage: %w", err)
}
