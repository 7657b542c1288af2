package postgres

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "authapi/backend/internal/domain/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests are opt-in and require DATABASE_TEST_URL.

func mustOpenTestDatabase(t *testing.T) *Database {
	t.Helper()
	dsn := os.Getenv("DATABASE_TEST_URL")
	if dsn == "" {
		t.Skip("DATABASE_TEST_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, dsn)
	if err != nil {
		t.Skipf("postgres unreachable: %v", err)
	}
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return db
}

func newTestUser(email string) *domain.User {
	return &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "A",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := mustOpenTestDatabase(t)
	repo := NewUserRepository(db.Pool)
	ctx := context.Background()

	u := newTestUser(uuid.NewString() + "@example.com")
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, repo.Ping(ctx))
}

func TestUserRepository_NotFound(t *testing.T) {
	db := mustOpenTestDatabase(t)
	repo := NewUserRepository(db.Pool)

	_, err := repo.GetByEmail(context.Background(), "ghost-"+uuid.NewString()+"@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_ConcurrentDuplicateEmail(t *testing.T) {
	db := mustOpenTestDatabase(t)
	repo := NewUserRepository(db.Pool)
	email := uuid.NewString() + "@example.com"

	var ok, conflicts atomic.Int32
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(context.Background(), newTestUser(email))
			if err == nil {
				ok.Add(1)
				return
			}
			if assert.ErrorIs(t, err, domain.ErrEmailConflict) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 3, conflicts.Load())
}
