package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	domain "authapi/backend/internal/domain/auth"
)

const msgInternal = "Internal Server Error"

type errorResponse struct {
	Message string `json:"message"`
}

// userResponse is the public view of a user. Handlers never serialise the
// domain User, so the password hash cannot reach a response body.
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func newUserResponse(p domain.TokenPayload) userResponse {
	return userResponse{ID: p.ID, Email: p.Email, Name: p.Name}
}

type signupResponse struct {
	User      userResponse `json:"user"`
	AuthToken string       `json:"authToken"`
}

type loginResponse struct {
	AuthToken string `json:"authToken"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
