package migrations

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Run applies the users schema for the dialect behind db. Adapters never
// auto-migrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	switch name := db.Dialector.Name(); name {
	case "postgres":
		return db.AutoMigrate(&postgresUserRecord{}, &idempotencyRecord{})
	case "mysql":
		return db.AutoMigrate(&mysqlUserRecord{})
	default:
		return fmt.Errorf("migrations: unsupported dialect %q", name)
	}
}

// postgresUserRecord mirrors the users Postgres adapter.
type postgresUserRecord struct {
	ID        string         `gorm:"primaryKey;column:id;type:varchar(36)"`
	Username  string         `gorm:"column:username;uniqueIndex"`
	FirstName string         `gorm:"column:first_name"`
	LastName  string         `gorm:"column:last_name"`
	Age       int            `gorm:"column:age;index"`
	Pets      pq.StringArray `gorm:"column:pets;type:text[]"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (postgresUserRecord) TableName() string { return "users" }

// mysqlUserRecord mirrors the users MySQL adapter.
type mysqlUserRecord struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	Username  string    `gorm:"column:username;type:varchar(255);uniqueIndex"`
	FirstName string    `gorm:"column:first_name"`
	LastName  string    `gorm:"column:last_name"`
	Age       int       `gorm:"column:age;index"`
	Pets      []string  `gorm:"column:pets;type:json;serializer:json"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (mysqlUserRecord) TableName() string { return "users" }

// idempotencyRecord mirrors the Postgres idempotency store.
type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	Fingerprint string    `gorm:"column:fingerprint;size:64;not null"`
	UserID      string    `gorm:"column:user_id;type:varchar(36);not null;default:''"`
	ClaimedAt   time.Time `gorm:"column:claimed_at;autoCreateTime"`
}

func (idempotencyRecord) TableName() string { return "user_idempotency_keys" }
