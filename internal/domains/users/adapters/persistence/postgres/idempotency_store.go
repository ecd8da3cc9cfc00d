package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps create claims in the user_idempotency_keys table. The
// primary key on key arbitrates concurrent claims.
type IdempotencyStore struct {
	db *gorm.DB
}

// NewIdempotencyStore wires a PostgreSQL-backed idempotency store.
func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

// Claim inserts a pending claim, or loads the one already stored under key.
func (s *IdempotencyStore) Claim(ctx context.Context, key, fingerprint string) (ports.CreateClaim, bool, error) {
	if err := s.ensureDB(); err != nil {
		return ports.CreateClaim{}, false, err
	}
	record := claimRecord{Key: key, Fingerprint: fingerprint}
	err := s.db.WithContext(ctx).Create(&record).Error
	if err == nil {
		return record.toPort(), true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return ports.CreateClaim{}, false, fmt.Errorf("claim idempotency key: %w", err)
	}

	var held claimRecord
	if err := s.db.WithContext(ctx).First(&held, "key = ?", key).Error; err != nil {
		return ports.CreateClaim{}, false, fmt.Errorf("load idempotency key: %w", err)
	}
	if held.Fingerprint != fingerprint {
		return held.toPort(), false, ports.ErrIdempotencyConflict
	}
	return held.toPort(), false, nil
}

// Complete binds the pending claim for key to userID.
func (s *IdempotencyStore) Complete(ctx context.Context, key, userID string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	result := s.db.WithContext(ctx).
		Model(&claimRecord{}).
		Where("key = ? AND (user_id = '' OR user_id = ?)", key, userID).
		Update("user_id", userID)
	if result.Error != nil {
		return fmt.Errorf("complete idempotency key: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrIdempotencyConflict
	}
	return nil
}

// Release deletes key while it is still pending.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("key = ? AND user_id = ''", key).Delete(&claimRecord{}).Error; err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres idempotency store not configured")
	}
	return nil
}

type claimRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	Fingerprint string    `gorm:"column:fingerprint;size:64;not null"`
	UserID      string    `gorm:"column:user_id;type:varchar(36);not null;default:''"`
	ClaimedAt   time.Time `gorm:"column:claimed_at;autoCreateTime"`
}

func (claimRecord) TableName() string { return "user_idempotency_keys" }

func (r claimRecord) toPort() ports.CreateClaim {
	return ports.CreateClaim{Key: r.Key, Fingerprint: r.Fingerprint, UserID: r.UserID}
}
