package zone

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/mall-backoffice/internal/apperr"
)

var (
	ErrZoneNotFound = apperr.New(apperr.ErrNotFound, "zone not found")
	ErrInvalidName  = apperr.New(apperr.ErrValidation, "zone name is required")
	ErrInvalidArea  = apperr.New(apperr.ErrValidation, "zone area must not be negative")
	ErrZoneInUse    = apperr.New(apperr.ErrConflict, "zone still contains shops")
)

// Zone is a named area of the mall on one floor.
type Zone struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Floor       int       `json:"floor"`
	Area        float64   `json:"area"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input carries the editable fields of a zone.
type Input struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Floor       int     `json:"floor"`
	Area        float64 `json:"area"`
}

func (in Input) validate() error {
	if in.Name == "" {
		return ErrInvalidName
	}
	if in.Area < 0 {
		return ErrInvalidArea
	}
	return nil
}

type Repository interface {
	CreateZone(ctx context.Context, z *Zone) error
	GetZone(ctx context.Context, id string) (*Zone, error)
	ListZones(ctx context.Context) ([]*Zone, error)
	UpdateZone(ctx context.Context, z *Zone) error
	DeleteZone(ctx context.Context, id string) error
	CountShopsInZone(ctx context.Context, zoneID string) (int, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, in Input) (*Zone, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	z := &Zone{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Floor:       in.Floor,
		Area:        in.Area,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateZone(ctx, z); err != nil {
		return nil, err
	}
	log.Printf("[Zone] Created zone %s (%s)", z.ID, z.Name)
	return z, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Zone, error) {
	return s.repo.GetZone(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Zone, error) {
	return s.repo.ListZones(ctx)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Zone, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	z, err := s.repo.GetZone(ctx, id)
	if err != nil {
		return nil, err
	}
	z.Name = in.Name
	z.Description = in.Description
	z.Floor = in.Floor
	z.Area = in.Area
	z.UpdatedAt = time.Now()
	if err := s.repo.UpdateZone(ctx, z); err != nil {
		return nil, err
	}
	return z, nil
}

// Delete removes an empty zone.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetZone(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountShopsInZone(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrZoneInUse
	}
	return s.repo.DeleteZone(ctx, id)
}
