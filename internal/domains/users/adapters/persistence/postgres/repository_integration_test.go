//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-users-crud/internal/domains/users/domain"
	"github.com/Apurer/go-gin-users-crud/internal/domains/users/ports"
	"github.com/Apurer/go-gin-users-crud/internal/platform/migrations"
)

func setupUsersPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("users_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func newUser(t *testing.T, username string, age int, pets ...string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(username)
	require.NoError(t, err)
	user.UpdateAge(age)
	user.ReplacePets(pets)
	return user
}

func TestRepository_SaveAndFindByID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	user := newUser(t, "alice", 30, "rex", "tom", "rex")
	user.UpdateProfile("Alice", "Doe")

	saved, err := repo.Save(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, "alice", saved.Username)
	assert.Equal(t, []string{"rex", "tom"}, saved.Pets.Names())

	fetched, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", fetched.FirstName)
	assert.Equal(t, 30, fetched.Age)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_UpdateAndConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	alice, err := repo.Save(ctx, newUser(t, "alice", 30))
	require.NoError(t, err)
	_, err = repo.Save(ctx, newUser(t, "bob", 40))
	require.NoError(t, err)

	_, err = repo.Save(ctx, newUser(t, "bob", 41))
	assert.ErrorIs(t, err, ports.ErrConflict)

	alice.UpdateAge(31)
	alice.ReplacePets(nil)
	updated, err := repo.Save(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, updated.ID)
	assert.Equal(t, 31, updated.Age)
	assert.Empty(t, updated.Pets)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestRepository_QueriesAndDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	var ids []string
	for i := 1; i <= 3; i++ {
		saved, err := repo.Save(ctx, newUser(t, fmt.Sprintf("user%d", i), i*10, fmt.Sprintf("pet%d", i)))
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}

	seen := 0
	for user, err := range repo.FindAll(ctx) {
		require.NoError(t, err)
		assert.NotEmpty(t, user.Username)
		seen++
	}
	assert.Equal(t, 3, seen)

	young, err := repo.CountByAgeAtMost(ctx, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, young)

	owners, err := repo.FindByPetName(ctx, "pet2")
	require.NoError(t, err)
	require.Len(t, owners, 1)
	assert.Equal(t, ids[1], owners[0].ID)

	require.NoError(t, repo.DeleteByID(ctx, ids[1]))
	require.NoError(t, repo.DeleteByID(ctx, ids[1]))
	_, err = repo.FindByID(ctx, ids[1])
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestIdempotencyStore_ClaimLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupUsersPostgresContainer(t)
	defer cleanup()

	store := NewIdempotencyStore(db)
	ctx := context.Background()

	claim, claimed, err := store.Claim(ctx, "k", "h")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.True(t, claim.Pending())

	require.NoError(t, store.Release(ctx, "k"))
	_, claimed, err = store.Claim(ctx, "k", "h")
	require.NoError(t, err)
	assert.True(t, claimed, "a released key can be claimed again")

	require.NoError(t, store.Complete(ctx, "k", "u1"))
	require.NoError(t, store.Release(ctx, "k"))

	held, claimed, err := store.Claim(ctx, "k", "h")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.Equal(t, "u1", held.UserID)

	_, _, err = store.Claim(ctx, "k", "other")
	assert.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	assert.ErrorIs(t, store.Complete(ctx, "k", "u2"), ports.ErrIdempotencyConflict)
}
