package api

import (
	"net/http"
	"time"

	"github.com/example/mall-backoffice/internal/api/middleware"
	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/user"
)

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	userService *user.Service
	jwtService  *auth.JWTService
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(userService *user.Service, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		userService: userService,
		jwtService:  jwtService,
	}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	User      *user.User `json:"user"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Register creates a client account and signs it in.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req user.CreateInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	newUser, err := h.userService.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := h.signIn(w, r, newUser)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp.Message = "Registration successful"
	respondJSON(w, http.StatusCreated, resp)
}

// Login handles user login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	u, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := h.signIn(w, r, u)
	if err != nil {
		respondError(w, r, err)
		return
	}
	resp.Message = "Login successful"
	respondJSON(w, http.StatusOK, resp)
}

// Logout clears the session cookie.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	respondMessage(w, "Logout successful")
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	u, err := h.userService.Get(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *AuthHandlers) signIn(w http.ResponseWriter, r *http.Request, u *user.User) (AuthResponse, error) {
	token, expiresAt, err := h.jwtService.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return AuthResponse{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	return AuthResponse{User: u, Token: token, ExpiresAt: &expiresAt}, nil
}
