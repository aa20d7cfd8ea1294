package shop

import (
	"context"
	"time"

	"github.com/example/mall-backoffice/internal/apperr"
)

var (
	ErrShopNotFound    = apperr.New(apperr.ErrNotFound, "shop not found")
	ErrNumberTaken     = apperr.New(apperr.ErrDuplicate, "shop number already in use")
	ErrInvalidNumber   = apperr.New(apperr.ErrValidation, "shop number is required")
	ErrInvalidName     = apperr.New(apperr.ErrValidation, "shop name is required")
	ErrInvalidCategory = apperr.New(apperr.ErrValidation, "unknown shop category")
	ErrInvalidArea     = apperr.New(apperr.ErrValidation, "shop area must be positive")
	ErrInvalidStatus   = apperr.New(apperr.ErrValidation, "shop status must be free or occupied")
	ErrZoneRequired    = apperr.New(apperr.ErrValidation, "zone is required")
	ErrNotMerchant     = apperr.New(apperr.ErrValidation, "user is not a merchant")
	ErrNotShopOwner    = apperr.New(apperr.ErrForbidden, "shop belongs to another merchant")
)

type Category string

const (
	CategoryFashion     Category = "fashion"
	CategoryFood        Category = "food"
	CategoryElectronics Category = "electronics"
	CategoryCosmetics   Category = "cosmetics"
	CategorySport       Category = "sport"
	CategoryBooks       Category = "books"
	CategoryRestaurant  Category = "restaurant"
	CategoryServices    Category = "services"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFashion, CategoryFood, CategoryElectronics, CategoryCosmetics,
		CategorySport, CategoryBooks, CategoryRestaurant, CategoryServices, CategoryOther:
		return true
	}
	return false
}

type Status string

const (
	StatusFree     Status = "free"
	StatusOccupied Status = "occupied"
)

func (s Status) Valid() bool {
	return s == StatusFree || s == StatusOccupied
}

// Shop is a rentable unit of the mall, optionally run by a merchant.
type Shop struct {
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Area        float64   `json:"area"`
	ZoneID      string    `json:"zone_id"`
	Status      Status    `json:"status"`
	MerchantID  string    `json:"merchant_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnedBy reports whether merchantID runs the shop.
func (s *Shop) OwnedBy(merchantID string) bool {
	return s.MerchantID != "" && s.MerchantID == merchantID
}

// Filter narrows ListShops. Zero values match everything.
type Filter struct {
	ZoneID     string
	Status     Status
	Category   Category
	MerchantID string
	Active     *bool
}

// Stats counts shops by occupancy.
type Stats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Occupied int `json:"occupied"`
	Free     int `json:"free"`
}

// Repository persists shops. Number uniqueness is enforced by the store.
type Repository interface {
	CreateShop(ctx context.Context, s *Shop) error
	GetShop(ctx context.Context, id string) (*Shop, error)
	ListShops(ctx context.Context, f Filter) ([]*Shop, error)
	UpdateShop(ctx context.Context, s *Shop) error
	DeleteShop(ctx context.Context, id string) error
}
