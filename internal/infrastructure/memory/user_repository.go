// Package memory provides a process-local user store for development and tests.
package memory

import (
	"context"
	"sync"

	domain "authapi/backend/internal/domain/auth"
)

// UserRepository keeps users in memory, unique by email.
type UserRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.User
}

// Ensure UserRepository implements the domain interface.
var _ domain.UserRepository = (*UserRepository)(nil)

// NewUserRepository constructs an empty repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byEmail: make(map[string]*domain.User),
	}
}

// Create stores a copy of user. A second user with the same email is rejected
// with domain.ErrEmailConflict.
func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return domain.ErrEmailConflict
	}
	stored := *user
	r.byEmail[stored.Email] = &stored
	return nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// Ping always succeeds.
func (r *UserRepository) Ping(context.Context) error { return nil }
