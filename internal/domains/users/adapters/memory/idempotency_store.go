package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps create claims in a map guarded by a mutex.
type IdempotencyStore struct {
	mu     sync.Mutex
	claims map[string]ports.CreateClaim
}

// NewIdempotencyStore constructs an empty in-memory store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{claims: map[string]ports.CreateClaim{}}
}

// Claim reserves key for fingerprint unless someone already holds it.
func (s *IdempotencyStore) Claim(_ context.Context, key, fingerprint string) (ports.CreateClaim, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if held, ok := s.claims[key]; ok {
		if held.Fingerprint != fingerprint {
			return held, false, ports.ErrIdempotencyConflict
		}
		return held, false, nil
	}
	claim := ports.CreateClaim{Key: key, Fingerprint: fingerprint}
	s.claims[key] = claim
	return claim, true, nil
}

// Complete records the created user on a pending claim.
func (s *IdempotencyStore) Complete(_ context.Context, key, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[key]
	if !ok {
		return fmt.Errorf("idempotency key %q was never claimed", key)
	}
	if !claim.Pending() && claim.UserID != userID {
		return ports.ErrIdempotencyConflict
	}
	claim.UserID = userID
	s.claims[key] = claim
	return nil
}

// Release forgets a pending claim; completed claims are kept.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if claim, ok := s.claims[key]; ok && claim.Pending() {
		delete(s.claims, key)
	}
	return nil
}
