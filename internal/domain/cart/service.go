package cart

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/mall-backoffice/internal/domain/product"
)

type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*product.Product, error)
}

// Line is a cart item enriched with live product details.
type Line struct {
	CartItem
	Name     string `json:"name"`
	ShopID   string `json:"shop_id"`
	Image    string `json:"image,omitempty"`
	Subtotal int    `json:"subtotal"`
}

// View is a cart as shown to its owner.
type View struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Items     []Line    `json:"items"`
	Total     int       `json:"total"`
	ItemCount int       `json:"item_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Totals is the summary returned by the cart total endpoint.
type Totals struct {
	Total     int `json:"total"`
	ItemCount int `json:"item_count"`
}

type Service struct {
	repo     Repository
	products ProductReader
	now      func() time.Time
}

func NewService(repo Repository, products ProductReader) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

// Get returns the client's cart without lines whose product is gone or
// inactive. An absent cart is returned empty.
func (s *Service) Get(ctx context.Context, clientID string) (*View, error) {
	c, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(c.Items))
	live := make(map[string]bool, len(c.Items))
	for _, it := range c.Items {
		p, err := s.products.GetProduct(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrProductNotFound) {
				continue
			}
			return nil, err
		}
		if !p.Orderable() {
			continue
		}
		live[it.ProductID] = true
		line := Line{CartItem: it, Name: p.Name, ShopID: p.ShopID, Subtotal: it.Price * it.Quantity}
		if len(p.Images) > 0 {
			line.Image = p.Images[0]
		}
		lines = append(lines, line)
	}
	c.Retain(func(it CartItem) bool { return live[it.ProductID] })

	return &View{
		ID:        c.ID,
		ClientID:  c.ClientID,
		Items:     lines,
		Total:     c.Total,
		ItemCount: c.ItemCount(),
		UpdatedAt: c.UpdatedAt,
	}, nil
}

// AddItem puts quantity units of a product in the cart. The cumulative
// quantity must not exceed the current stock.
func (s *Service) AddItem(ctx context.Context, clientID, productID string, quantity int) (*View, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Orderable() {
		return nil, ErrProductInactive
	}

	c, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	inCart := c.QuantityOf(productID)
	if quantity > p.Stock-inCart {
		return nil, stockError(p, inCart, quantity)
	}
	c.Add(productID, quantity, p.Price)
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	log.Printf("[Cart] Client %s added %d x %s", clientID, quantity, productID)
	return s.Get(ctx, clientID)
}

// UpdateQuantity sets the quantity of a line already in the cart.
func (s *Service) UpdateQuantity(ctx context.Context, clientID, productID string, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if quantity > p.Stock {
		return nil, stockError(p, 0, quantity)
	}

	c, err := s.repo.GetCart(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := c.SetQuantity(productID, quantity, p.Price); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return s.Get(ctx, clientID)
}

func (s *Service) RemoveItem(ctx context.Context, clientID, productID string) (*View, error) {
	c, err := s.repo.GetCart(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := c.Remove(productID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return s.Get(ctx, clientID)
}

func (s *Service) Clear(ctx context.Context, clientID string) error {
	c, err := s.repo.GetCart(ctx, clientID)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		return err
	}
	c.Clear()
	return s.save(ctx, c)
}

// Totals returns the stored total and unit count.
func (s *Service) Totals(ctx context.Context, clientID string) (Totals, error) {
	c, err := s.load(ctx, clientID)
	if err != nil {
		return Totals{}, err
	}
	return Totals{Total: c.Total, ItemCount: c.ItemCount()}, nil
}

func (s *Service) load(ctx context.Context, clientID string) (*Cart, error) {
	c, err := s.repo.GetCart(ctx, clientID)
	if errors.Is(err, ErrCartNotFound) {
		return New(uuid.New().String(), clientID), nil
	}
	return c, err
}

func (s *Service) save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = s.now()
	return s.repo.SaveCart(ctx, c)
}

func stockError(p *product.Product, inCart, requested int) error {
	if inCart > 0 {
		return fmt.Errorf("%w: %s has only %d in stock, %d already in cart, %d more requested",
			ErrNotEnoughInStock, p.Name, p.Stock, inCart, requested)
	}
	return fmt.Errorf("%w: %s has only %d in stock, %d requested", ErrNotEnoughInStock, p.Name, p.Stock, requested)
}
