package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation marks malformed or missing request input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailExists signals a duplicate email registration.
	ErrEmailExists = errors.New("email already registered")
	// ErrEmailConflict is returned by stores when their unique constraint on
	// email rejects an insert.
	ErrEmailConflict = fmt.Errorf("%w: unique constraint violated", ErrEmailExists)
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("user not found")

	// ErrTokenInvalid means a supplied token cannot be validated.
	ErrTokenInvalid = errors.New("token invalid or expired")
	// ErrTokenMalformed means the token could not be decoded at all.
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrTokenInvalid)
	// ErrTokenSignatureInvalid means the token was forged, corrupted or
	// signed with another secret.
	ErrTokenSignatureInvalid = fmt.Errorf("%w: signature invalid", ErrTokenInvalid)
	// ErrTokenExpired means the signature is valid but the token is past its expiry.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrTokenInvalid)
)

// ValidationError carries a message that is safe to return to the client.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	return e.Msg
}

func (e ValidationError) Unwrap() error { return ErrValidation }

// User models the authentication entity persisted in storage.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Email    string
	Password string
}

// TokenPayload is the identity snapshot embedded in a session token.
type TokenPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Payload returns the token payload for the user.
func (u *User) Payload() TokenPayload {
	return TokenPayload{ID: u.ID, Email: u.Email, Name: u.Name}
}

// TokenKind names the verification failure class for logs and metrics.
func TokenKind(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
