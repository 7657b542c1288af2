package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domain "authapi/backend/internal/domain/auth"
	authusecase "authapi/backend/internal/usecase/auth"
)

const (
	maxBodyBytes = 1 << 20

	msgUserExists         = "User already exists."
	msgInvalidCredentials = "User or password is incorrect."
	msgTokenRequired      = "authorization token required"
	msgTokenInvalid       = "invalid or expired token"
)

func (s *Server) registerRoutes() {
	s.router.Handle("/health", http.HandlerFunc(s.handleHealth))
	s.router.Handle("/ready", http.HandlerFunc(s.handleReady))
	s.router.Handle("/auth/signup", http.HandlerFunc(s.handleSignup))
	s.router.Handle("/auth/login", http.HandlerFunc(s.handleLogin))
	s.router.Handle("/auth/verify", s.requireGet(s.authMiddleware(http.HandlerFunc(s.handleVerify))))
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "readiness check failed",
			slog.String("request_id", requestIDFrom(ctx)),
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !decodeJSON(w, r, &payload) {
		s.recordAuth("signup", "validation")
		return
	}

	res, err := s.authService.Signup(r.Context(), authusecase.SignupInput{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
	})
	if err != nil {
		var verr domain.ValidationError
		switch {
		case errors.As(err, &verr):
			s.recordAuth("signup", "validation")
			s.logger.DebugContext(r.Context(), "signup rejected", slog.String("reason", verr.Msg))
			writeError(w, http.StatusBadRequest, verr.Msg)
		case errors.Is(err, domain.ErrEmailConflict):
			s.recordAuth("signup", "conflict")
			writeError(w, http.StatusConflict, msgUserExists)
		case errors.Is(err, domain.ErrEmailExists):
			s.recordAuth("signup", "exists")
			writeError(w, http.StatusBadRequest, msgUserExists)
		default:
			s.recordAuth("signup", "error")
			s.internalError(w, r, "signup failed", err)
		}
		return
	}

	s.recordAuth("signup", "success")
	s.logger.InfoContext(r.Context(), "user signed up", slog.String("user_id", res.User.ID))
	writeJSON(w, http.StatusCreated, signupResponse{
		User:      newUserResponse(res.User),
		AuthToken: res.Token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		s.recordAuth("login", "validation")
		return
	}

	token, err := s.authService.Login(r.Context(), domain.Credentials{
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		var verr domain.ValidationError
		switch {
		case errors.As(err, &verr):
			s.recordAuth("login", "validation")
			writeError(w, http.StatusBadRequest, verr.Msg)
		case errors.Is(err, domain.ErrInvalidCredentials):
			s.recordAuth("login", "invalid_credentials")
			s.logger.InfoContext(r.Context(), "login rejected",
				slog.String("request_id", requestIDFrom(r.Context())),
			)
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		default:
			s.recordAuth("login", "error")
			s.internalError(w, r, "login failed", err)
		}
		return
	}

	s.recordAuth("login", "success")
	writeJSON(w, http.StatusOK, loginResponse{AuthToken: token})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	payload, ok := currentUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgTokenRequired)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(*payload))
}

func (s *Server) requireGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, http.MethodGet)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			s.recordAuth("verify", "missing")
			writeError(w, http.StatusUnauthorized, msgTokenRequired)
			return
		}

		user, err := s.authService.VerifyToken(r.Context(), token)
		if err != nil {
			kind := domain.TokenKind(err)
			s.recordAuth("verify", kind)
			s.logger.InfoContext(r.Context(), "token rejected",
				slog.String("request_id", requestIDFrom(r.Context())),
				slog.String("kind", kind),
			)
			writeError(w, http.StatusUnauthorized, msgTokenInvalid)
			return
		}

		s.recordAuth("verify", "success")
		ctx := context.WithValue(r.Context(), ctxKeyUser{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUserFromContext(ctx context.Context) (*domain.TokenPayload, bool) {
	user, ok := ctx.Value(ctxKeyUser{}).(*domain.TokenPayload)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

type ctxKeyUser struct{}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// decodeJSON reads a bounded JSON body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.ErrorContext(r.Context(), msg,
		slog.String("request_id", requestIDFrom(r.Context())),
		slog.Any("error", err),
	)
	writeError(w, http.StatusInternalServerError, msgInternal)
}

func (s *Server) recordAuth(operation, result string) {
	if s.metrics != nil {
		s.metrics.authEvent(operation, result)
	}
}
