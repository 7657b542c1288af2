package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	domain "authapi/backend/internal/domain/auth"

	"github.com/google/uuid"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// emailPattern excludes Unicode spaces and the BOM as well as ASCII
// whitespace; RE2's \s covers ASCII only.
var emailPattern = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]{2,}$`)

// dummyPassword is hashed once and compared against on unknown-email logins so
// both login failures cost one hash comparison.
const dummyPassword = "unknown-user-placeholder"

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users   domain.UserRepository
	hasher  PasswordHasher
	tokens  TokenManager
	nowFunc func() time.Time
	newID   func() string

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs an auth service.
func NewService(users domain.UserRepository, hasher PasswordHasher, tokens TokenManager) *Service {
	return &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		nowFunc: time.Now,
		newID:   uuid.NewString,
	}
}

// SignupInput is the raw signup request.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// SignupResult holds the created user without its password hash and a
// session token for it.
type SignupResult struct {
	User  domain.TokenPayload
	Token string
}

// Signup validates the input, creates the user and issues a token.
//
// The email pre-check returns domain.ErrEmailExists; a duplicate that slips
// past it is rejected by the store with domain.ErrEmailConflict.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	email := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || input.Password == "" || name == "" {
		return nil, domain.ValidationError{Msg: "Provide email, password and name"}
	}
	if !emailPattern.MatchString(email) {
		return nil, domain.ValidationError{Msg: "Provide a valid email address."}
	}
	if len(input.Password) > maxPasswordBytes {
		return nil, domain.ValidationError{Msg: "Password must be at most 72 bytes long."}
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           s.newID(),
		Email:        email,
		Name:         name,
		PasswordHash: hashed,
		CreatedAt:    s.nowFunc().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.Payload())
	if err != nil {
		return nil, err
	}

	return &SignupResult{User: user.Payload(), Token: token}, nil
}

// Login validates credentials and returns a session token. Unknown emails and
// wrong passwords both yield domain.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	email := normalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return "", domain.ValidationError{Msg: "Provide both email and password."}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(creds.Password, s.dummyPasswordHash())
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if !s.hasher.Verify(creds.Password, user.PasswordHash) {
		return "", domain.ErrInvalidCredentials
	}

	return s.tokens.Issue(user.Payload())
}

// VerifyToken validates a bearer token and returns the identity it carries.
// The payload is not re-read from storage.
func (s *Service) VerifyToken(_ context.Context, token string) (*domain.TokenPayload, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrTokenMalformed
	}
	return s.tokens.Verify(token)
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		// On error the comparison below fails fast; login still reports
		// invalid credentials.
		s.dummyHash, _ = s.hasher.Hash(dummyPassword)
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
