package cart

import (
	"context"
	"time"

	"github.com/example/mall-backoffice/internal/apperr"
)

var (
	ErrCartNotFound     = apperr.New(apperr.ErrNotFound, "cart not found")
	ErrItemNotInCart    = apperr.New(apperr.ErrNotFound, "product is not in the cart")
	ErrInvalidQuantity  = apperr.New(apperr.ErrValidation, "quantity must be positive")
	ErrInvalidProduct   = apperr.New(apperr.ErrValidation, "product_id is required")
	ErrProductInactive  = apperr.New(apperr.ErrValidation, "product is not available")
	ErrNotEnoughInStock = apperr.New(apperr.ErrValidation, "not enough stock for the requested quantity")
)

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int    `json:"price"`
}

// Cart is the single basket of a client. Items keep insertion order and
// Total always equals the sum of Price*Quantity.
type Cart struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"client_id"`
	Items     []CartItem `json:"items"`
	Total     int        `json:"total"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// New returns an empty cart for a client.
func New(id, clientID string) *Cart {
	return &Cart{ID: id, ClientID: clientID, Items: []CartItem{}}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// QuantityOf returns how many units of a product the cart holds.
func (c *Cart) QuantityOf(productID string) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Add merges quantity into an existing line or appends a new one. The line
// price is refreshed to price.
func (c *Cart) Add(productID string, quantity, price int) {
	if i := c.indexOf(productID); i >= 0 {
		c.Items[i].Quantity += quantity
		c.Items[i].Price = price
	} else {
		c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: quantity, Price: price})
	}
	c.Recalculate()
}

// SetQuantity replaces the quantity of an existing line.
func (c *Cart) SetQuantity(productID string, quantity, price int) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotInCart
	}
	c.Items[i].Quantity = quantity
	c.Items[i].Price = price
	c.Recalculate()
	return nil
}

func (c *Cart) Remove(productID string) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotInCart
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.Recalculate()
	return nil
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Total = 0
}

// Retain keeps only the lines for which keep returns true.
func (c *Cart) Retain(keep func(CartItem) bool) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if keep(it) {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	c.Recalculate()
}

func (c *Cart) Recalculate() {
	total := 0
	for _, it := range c.Items {
		total += it.Price * it.Quantity
	}
	c.Total = total
}

// ItemCount sums the quantities of all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Repository persists carts keyed by client.
type Repository interface {
	GetCart(ctx context.Context, clientID string) (*Cart, error)
	SaveCart(ctx context.Context, c *Cart) error
}
