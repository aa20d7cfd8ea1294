package order

import (
	"context"
	"fmt"
	"time"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/domain/cart"
	"github.com/example/mall-backoffice/internal/domain/product"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
)

var (
	ErrOrderNotFound      = apperr.New(apperr.ErrNotFound, "order not found")
	ErrInvalidPaymentMode = apperr.New(apperr.ErrValidation, "payment mode must be delivery or online")
	ErrInvalidStatus      = apperr.New(apperr.ErrValidation, "status must be one of new, confirmed, preparing, ready, delivered, cancelled")
	ErrEmptyCart          = apperr.New(apperr.ErrValidation, "cart is empty")
	ErrClientRequired     = apperr.New(apperr.ErrValidation, "client is required")
	ErrProductUnavailable = apperr.New(apperr.ErrConflict, "product is no longer available")
	ErrInsufficientStock  = apperr.New(apperr.ErrConflict, "insufficient stock")
	ErrNotOrderOwner      = apperr.New(apperr.ErrForbidden, "order belongs to another account")
	ErrInvalidQuantity    = apperr.New(apperr.ErrValidation, "order line quantity must be positive")
	ErrAmountTooLarge     = apperr.New(apperr.ErrValidation, "order amount is too large")
)

// UnavailableProductError names a cart product that is missing or inactive.
type UnavailableProductError struct {
	ProductID string
	Name      string
}

func (e *UnavailableProductError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("product %s is no longer available", name)
}

func (e *UnavailableProductError) Is(target error) bool {
	return target == ErrProductUnavailable || target == apperr.ErrConflict
}

// InsufficientStockError names a product whose stock cannot cover the cart.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested", e.Name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock || target == apperr.ErrConflict
}

type Status string

const (
	StatusNew       Status = "new"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var statusAliases = map[string]Status{
	"new":            StatusNew,
	"confirmed":      StatusConfirmed,
	"preparing":      StatusPreparing,
	"ready":          StatusReady,
	"delivered":      StatusDelivered,
	"cancelled":      StatusCancelled,
	"nouvelle":       StatusNew,
	"confirmee":      StatusConfirmed,
	"en_preparation": StatusPreparing,
	"prete":          StatusReady,
	"livree":         StatusDelivered,
	"annulee":        StatusCancelled,
}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus accepts the six status values and their legacy French names.
func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[s]; ok {
		return st, nil
	}
	return "", ErrInvalidStatus
}

type PaymentMode string

const (
	PaymentDelivery PaymentMode = "delivery"
	PaymentOnline   PaymentMode = "online"
)

// ParsePaymentMode accepts delivery or online and their legacy French names.
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch s {
	case "delivery", "livraison":
		return PaymentDelivery, nil
	case "online", "en_ligne":
		return PaymentOnline, nil
	}
	return "", ErrInvalidPaymentMode
}

// Item is a snapshot of a product at checkout time.
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int    `json:"subtotal"`
}

// Order is the part of a checkout that belongs to one shop.
type Order struct {
	ID          string      `json:"id"`
	Number      string      `json:"number"`
	ClientID    string      `json:"client_id"`
	ShopID      string      `json:"shop_id"`
	Items       []Item      `json:"items"`
	Total       int         `json:"total"`
	Status      Status      `json:"status"`
	PaymentMode PaymentMode `json:"payment_mode"`
	Paid        bool        `json:"paid"`
	Notes       string      `json:"notes,omitempty"`
	DeliveredAt *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Filter narrows ListOrders. Zero values match everything; Limit 0 means
// no limit.
type Filter struct {
	ClientID string
	ShopID   string
	Status   Status
	From     time.Time
	To       time.Time
	Offset   int
	Limit    int
}

type Repository interface {
	GetOrder(ctx context.Context, id string) (*Order, error)
	// ListOrders returns one page of matches, newest first, and the total
	// match count.
	ListOrders(ctx context.Context, f Filter) ([]*Order, int, error)
	UpdateOrder(ctx context.Context, o *Order) error
}

// Tx is the set of operations available inside a checkout transaction.
// Rows read through Lock* stay locked until the transaction ends.
type Tx interface {
	LockCart(ctx context.Context, clientID string) (*cart.Cart, error)
	// LockProducts returns the live state of the given products keyed by id.
	// Missing ids are absent from the map.
	LockProducts(ctx context.Context, ids []string) (map[string]*product.Product, error)
	InsertOrder(ctx context.Context, o *Order) error
	// DecrementStock fails with ErrInsufficientStock rather than letting
	// stock go negative.
	DecrementStock(ctx context.Context, productID string, quantity int) error
	SaveCart(ctx context.Context, c *cart.Cart) error
}

// Transactor runs fn inside one atomic storage transaction. If fn returns an
// error nothing it did is persisted.
type Transactor interface {
	WithinCheckout(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Store is everything the order service needs from persistence.
type Store interface {
	Repository
	Transactor
}

// Directory resolves the shop and client shown with an order.
type Directory interface {
	GetShop(ctx context.Context, id string) (*shop.Shop, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
}

type ShopSummary struct {
	ID     string `json:"id"`
	Number string `json:"number,omitempty"`
	Name   string `json:"name,omitempty"`
}

type ClientSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// View is an order with its shop and client resolved for display.
type View struct {
	*Order
	Shop   ShopSummary   `json:"shop"`
	Client ClientSummary `json:"client"`
}

// Page is one page of an order listing.
type Page struct {
	Items []*View `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Pages int     `json:"pages"`
}
