package auth

import "context"

// UserRepository defines persistence operations for auth users.
//
// Create must return ErrEmailConflict when the store's uniqueness guarantee on
// email rejects the insert. Lookups return ErrUserNotFound for missing rows.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	Ping(ctx context.Context) error
}
