package user

import (
	"context"
	"strings"
	"time"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/auth"
)

var (
	ErrUserNotFound       = apperr.New(apperr.ErrNotFound, "user not found")
	ErrEmailTaken         = apperr.New(apperr.ErrDuplicate, "email already registered")
	ErrInvalidEmail       = apperr.New(apperr.ErrValidation, "a valid email is required")
	ErrInvalidName        = apperr.New(apperr.ErrValidation, "last name is required")
	ErrInvalidRole        = apperr.New(apperr.ErrValidation, "role must be admin, merchant or client")
	ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "invalid email or password")
	ErrUserDeactivated    = apperr.New(apperr.ErrForbidden, "user account is deactivated")
)

// User is a mall account: administrator, shop merchant or storefront client.
type User struct {
	ID           string    `json:"id"`
	LastName     string    `json:"last_name"`
	FirstName    string    `json:"first_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Filter narrows ListUsers. Zero values match everything.
type Filter struct {
	Role auth.Role
}

// Repository persists users. Email uniqueness is enforced by the store.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, f Filter) ([]*User, error)
	UpdateUser(ctx context.Context, u *User) error
	DeleteUser(ctx context.Context, id string) error
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
