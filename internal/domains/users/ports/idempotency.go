package ports

import (
	"context"
	"errors"
)

// ErrIdempotencyConflict reports a key that was first used for a different create request.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// CreateClaim reserves an idempotency key for one create request. UserID stays
// empty until the insert it guards has completed.
type CreateClaim struct {
	Key         string
	Fingerprint string
	UserID      string
}

// Pending reports whether the guarded create has not finished yet.
func (c CreateClaim) Pending() bool {
	return c.UserID == ""
}

// IdempotencyStore arbitrates retried creates that carry the same key.
type IdempotencyStore interface {
	// Claim reserves key for fingerprint. When the key is already claimed the
	// stored claim is returned with claimed=false, or ErrIdempotencyConflict
	// when it was claimed for another fingerprint.
	Claim(ctx context.Context, key, fingerprint string) (claim CreateClaim, claimed bool, err error)
	// Complete binds a pending claim to the user its create produced.
	Complete(ctx context.Context, key, userID string) error
	// Release drops a pending claim so the request can be retried.
	Release(ctx context.Context, key string) error
}
