package mysql

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/domain"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
)

const errDuplicateEntry = 1062

var _ ports.Repository = (*Repository)(nil)

// Repository persists users in MySQL using GORM. Pets are kept in a JSON column.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a MySQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type userRecord struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	Username  string    `gorm:"column:username;type:varchar(255);uniqueIndex"`
	FirstName string    `gorm:"column:first_name"`
	LastName  string    `gorm:"column:last_name"`
	Age       int       `gorm:"column:age;index"`
	Pets      []string  `gorm:"column:pets;type:json;serializer:json"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

// Save inserts a user (assigning its id when empty) or updates the stored row.
// Inserts and updates are issued separately so username collisions always
// surface as ErrConflict instead of being absorbed by an upsert.
func (r *Repository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user is nil")
	}
	clone := user.Clone()
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	record := toRecord(clone)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&userRecord{}).Where("id = ?", record.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			return tx.Create(&record).Error
		}
		return tx.Model(&userRecord{ID: record.ID}).
			Select("username", "first_name", "last_name", "age", "pets", "updated_at").
			Updates(&record).Error
	})
	if err != nil {
		if isDuplicateError(err) {
			return nil, ports.ErrConflict
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return r.FindByID(ctx, record.ID)
}

// FindByID fetches a user by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record userRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return record.toDomain(), nil
}

// FindAll streams every user row; each call opens a fresh cursor.
func (r *Repository) FindAll(ctx context.Context) iter.Seq2[*domain.User, error] {
	return func(yield func(*domain.User, error) bool) {
		if err := r.ensureDB(); err != nil {
			yield(nil, err)
			return
		}
		rows, err := r.db.WithContext(ctx).Model(&userRecord{}).Rows()
		if err != nil {
			yield(nil, fmt.Errorf("list users: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var record userRecord
			if err := r.db.ScanRows(rows, &record); err != nil {
				yield(nil, fmt.Errorf("scan user: %w", err))
				return
			}
			if !yield(record.toDomain(), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("list users: %w", err))
		}
	}
}

// DeleteByID removes a user; deleting an unknown id is not an error.
func (r *Repository) DeleteByID(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&userRecord{}).Error; err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Count returns the number of stored users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, nil)
}

// CountByAgeAtMost counts users whose age is at most maxAge.
func (r *Repository) CountByAgeAtMost(ctx context.Context, maxAge int) (int64, error) {
	return r.count(ctx, func(tx *gorm.DB) *gorm.DB { return tx.Where("age <= ?", maxAge) })
}

// FindByPetName returns users whose pets document contains name.
func (r *Repository) FindByPetName(ctx context.Context, name string) ([]*domain.User, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []userRecord
	if err := r.db.WithContext(ctx).Where("JSON_CONTAINS(pets, JSON_QUOTE(?))", name).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("find users by pet: %w", err)
	}
	users := make([]*domain.User, 0, len(records))
	for i := range records {
		users = append(users, records[i].toDomain())
	}
	return users, nil
}

func (r *Repository) count(ctx context.Context, scope func(*gorm.DB) *gorm.DB) (int64, error) {
	if err := r.ensureDB(); err != nil {
		return 0, err
	}
	tx := r.db.WithContext(ctx).Model(&userRecord{})
	if scope != nil {
		tx = scope(tx)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("mysql user repository not configured")
	}
	return nil
}

func isDuplicateError(err error) bool {
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func toRecord(user *domain.User) userRecord {
	return userRecord{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Age:       user.Age,
		Pets:      user.Pets.Names(),
	}
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:        r.ID,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Age:       r.Age,
		Pets:      domain.NewPetSet(r.Pets...),
	}
}

