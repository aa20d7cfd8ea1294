package user

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/mall-backoffice/internal/auth"
)

// CreateInput carries the fields of a new account.
type CreateInput struct {
	LastName  string    `json:"last_name"`
	FirstName string    `json:"first_name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      auth.Role `json:"role"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
}

// UpdateInput carries optional profile changes. Nil fields are left alone.
type UpdateInput struct {
	LastName  *string    `json:"last_name"`
	FirstName *string    `json:"first_name"`
	Email     *string    `json:"email"`
	Password  *string    `json:"password"`
	Role      *auth.Role `json:"role"`
	Phone     *string    `json:"phone"`
	Address   *string    `json:"address"`
	Active    *bool      `json:"active"`
}

// Service handles user domain operations
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new user service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register creates a client account from the public sign-up form.
func (s *Service) Register(ctx context.Context, in CreateInput) (*User, error) {
	in.Role = auth.RoleClient
	return s.Create(ctx, in)
}

// Create creates an account with any role.
func (s *Service) Create(ctx context.Context, in CreateInput) (*User, error) {
	email := NormalizeEmail(in.Email)
	if !validEmail(email) {
		return nil, ErrInvalidEmail
	}
	if in.LastName == "" {
		return nil, ErrInvalidName
	}
	if in.Role == "" {
		in.Role = auth.RoleClient
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	u := &User{
		ID:           uuid.New().String(),
		LastName:     in.LastName,
		FirstName:    in.FirstName,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        in.Phone,
		Address:      in.Address,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	log.Printf("[User] Created %s account %s", u.Role, u.ID)
	return u, nil
}

// Authenticate checks credentials and returns the matching active user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrUserDeactivated
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]*User, error) {
	return s.repo.ListUsers(ctx, f)
}

// Update applies profile changes.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.LastName != nil {
		if *in.LastName == "" {
			return nil, ErrInvalidName
		}
		u.LastName = *in.LastName
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.Email != nil {
		email := NormalizeEmail(*in.Email)
		if !validEmail(email) {
			return nil, ErrInvalidEmail
		}
		u.Email = email
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, ErrInvalidRole
		}
		u.Role = *in.Role
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if in.Address != nil {
		u.Address = *in.Address
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	u.UpdatedAt = s.now()

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	log.Printf("[User] Deleted account %s", id)
	return nil
}
