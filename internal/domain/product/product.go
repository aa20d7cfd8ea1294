package product

import (
	"context"
	"time"

	"github.com/example/mall-backoffice/internal/apperr"
)

var (
	ErrProductNotFound = apperr.New(apperr.ErrNotFound, "product not found")
	ErrInvalidName     = apperr.New(apperr.ErrValidation, "product name is required")
	ErrInvalidPrice    = apperr.New(apperr.ErrValidation, "price must not be negative")
	ErrInvalidStock    = apperr.New(apperr.ErrValidation, "stock must not be negative")
	ErrInvalidCategory = apperr.New(apperr.ErrValidation, "unknown product category")
	ErrShopRequired    = apperr.New(apperr.ErrValidation, "shop is required")
)

type Category string

const (
	CategoryClothing    Category = "clothing"
	CategoryElectronics Category = "electronics"
	CategoryFood        Category = "food"
	CategoryBeauty      Category = "beauty"
	CategorySport       Category = "sport"
	CategoryHome        Category = "home"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryClothing, CategoryElectronics, CategoryFood, CategoryBeauty,
		CategorySport, CategoryHome, CategoryOther:
		return true
	}
	return false
}

// Product is a sellable item of one shop. Stock never goes negative.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int       `json:"price"`
	Stock       int       `json:"stock"`
	ShopID      string    `json:"shop_id"`
	Category    Category  `json:"category"`
	Images      []string  `json:"images"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Orderable reports whether the product can be put in a cart or order.
func (p *Product) Orderable() bool {
	return p.Active
}

// Filter narrows ListProducts. Limit 0 means no limit.
type Filter struct {
	ShopID   string
	Category Category
	Active   *bool
	Search   string
	Offset   int
	Limit    int
}

type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	// ListProducts returns one page of matches and the total match count.
	ListProducts(ctx context.Context, f Filter) ([]*Product, int, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error
}
