package auth

import domain "authapi/backend/internal/domain/auth"

// TokenManager abstracts token issuance and verification.
type TokenManager interface {
	Issue(payload domain.TokenPayload) (string, error)
	Verify(token string) (*domain.TokenPayload, error)
}

// PasswordHasher abstracts one-way password hashing.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hashed string) bool
}
