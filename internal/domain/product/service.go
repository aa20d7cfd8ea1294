package product

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/shop"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Input carries the editable fields of a product.
type Input struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Stock       int      `json:"stock"`
	ShopID      string   `json:"shop_id"`
	Category    Category `json:"category"`
	Images      []string `json:"images"`
	Active      *bool    `json:"active"`
}

func (in *Input) validate() error {
	if in.Category == "" {
		in.Category = CategoryOther
	}
	switch {
	case in.Name == "":
		return ErrInvalidName
	case in.Price < 0:
		return ErrInvalidPrice
	case in.Stock < 0:
		return ErrInvalidStock
	case in.ShopID == "":
		return ErrShopRequired
	case !in.Category.Valid():
		return ErrInvalidCategory
	}
	return nil
}

// Page is one page of a product listing.
type Page struct {
	Items []*Product `json:"items"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Pages int        `json:"pages"`
}

type ShopReader interface {
	GetShop(ctx context.Context, id string) (*shop.Shop, error)
}

type Service struct {
	repo  Repository
	shops ShopReader
	now   func() time.Time
}

func NewService(repo Repository, shops ShopReader) *Service {
	return &Service{repo: repo, shops: shops, now: time.Now}
}

// List returns one page of products. page starts at 1.
func (s *Service) List(ctx context.Context, f Filter, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	f.Offset = (page - 1) * limit
	f.Limit = limit

	items, total, err := s.repo.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Page: page, Pages: (total + limit - 1) / limit}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// Create adds a product to a shop the actor manages.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in Input) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.authorizeShop(ctx, actor, in.ShopID); err != nil {
		return nil, err
	}

	now := s.now()
	p := &Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ShopID:      in.ShopID,
		Category:    in.Category,
		Images:      in.Images,
		Active:      in.Active == nil || *in.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[Product] Created product %s in shop %s (price=%d, stock=%d)", p.ID, p.ShopID, p.Price, p.Stock)
	return p, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id string, in Input) (*Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.ShopID != p.ShopID {
		if err := s.authorizeShop(ctx, actor, in.ShopID); err != nil {
			return nil, err
		}
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.ShopID = in.ShopID
	p.Category = in.Category
	if in.Images != nil {
		p.Images = in.Images
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	p.UpdatedAt = s.now()
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if _, err := s.loadManaged(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	log.Printf("[Product] Deleted product %s", id)
	return nil
}

// ToggleActive flips the active flag.
func (s *Service) ToggleActive(ctx context.Context, actor auth.Actor, id string) (*Product, error) {
	p, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	p.Active = !p.Active
	p.UpdatedAt = s.now()
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetStock overwrites the stock level.
func (s *Service) SetStock(ctx context.Context, actor auth.Actor, id string, stock int) (*Product, error) {
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	p, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	p.Stock = stock
	p.UpdatedAt = s.now()
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("[Product] Stock of %s set to %d", p.ID, stock)
	return p, nil
}

func (s *Service) loadManaged(ctx context.Context, actor auth.Actor, id string) (*Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeShop(ctx, actor, p.ShopID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) authorizeShop(ctx context.Context, actor auth.Actor, shopID string) error {
	sh, err := s.shops.GetShop(ctx, shopID)
	if err != nil {
		return err
	}
	return shop.Authorize(actor, sh)
}
