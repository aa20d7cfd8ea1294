package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/domain/cart"
	"github.com/example/mall-backoffice/internal/domain/product"
)

// PlaceOrder turns the client's cart into one order per shop. Every read,
// insert, stock decrement and the cart reset happen in a single storage
// transaction; on any failure nothing is persisted.
func (s *Service) PlaceOrder(ctx context.Context, clientID string, mode PaymentMode, notes string) ([]*View, error) {
	if mode != PaymentDelivery && mode != PaymentOnline {
		return nil, ErrInvalidPaymentMode
	}
	if clientID == "" {
		return nil, ErrClientRequired
	}

	ctx, cancel := context.WithTimeout(ctx, s.checkoutTimeout)
	defer cancel()

	var placed []*Order
	err := s.store.WithinCheckout(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.LockCart(ctx, clientID)
		if err != nil {
			if errors.Is(err, cart.ErrCartNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		if c.IsEmpty() {
			return ErrEmptyCart
		}

		products, err := tx.LockProducts(ctx, lockOrder(c.Items))
		if err != nil {
			return err
		}
		lines, err := snapshot(c.Items, products)
		if err != nil {
			return err
		}

		orders, err := s.partition(clientID, mode, notes, lines)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if err := tx.InsertOrder(ctx, o); err != nil {
				return err
			}
		}
		for _, l := range lines {
			if err := tx.DecrementStock(ctx, l.item.ProductID, l.item.Quantity); err != nil {
				return err
			}
		}

		c.Clear()
		c.UpdatedAt = s.now()
		if err := tx.SaveCart(ctx, c); err != nil {
			return err
		}
		placed = orders
		return nil
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, apperr.ErrTimeout) {
			return nil, apperr.Timeout("place order")
		}
		log.Printf("[Order] Checkout rejected for client %s: %v", clientID, err)
		return nil, err
	}

	for _, o := range placed {
		log.Printf("[Order] Placed %s (%s) client=%s shop=%s total=%d paid=%t",
			o.Number, o.ID, o.ClientID, o.ShopID, o.Total, o.Paid)
	}

	// The commit already happened; the caller's deadline must not drop events.
	pubCtx, pubCancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer pubCancel()
	for _, o := range placed {
		s.publish(pubCtx, EventOrderPlaced, o.ID, placedEvent(o))
	}

	return s.resolve(pubCtx, placed), nil
}

type line struct {
	item   Item
	shopID string
}

// lockOrder returns the distinct product ids of the cart sorted, so that
// concurrent checkouts acquire row locks in the same order.
func lockOrder(items []cart.CartItem) []string {
	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	sort.Strings(ids)
	return ids
}

// snapshot validates every cart line in cart order against live product
// state and captures it at the current price.
func snapshot(items []cart.CartItem, products map[string]*product.Product) ([]line, error) {
	required := make(map[string]int, len(items))
	lines := make([]line, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, &UnavailableProductError{ProductID: it.ProductID}
		}
		if !p.Orderable() {
			return nil, &UnavailableProductError{ProductID: p.ID, Name: p.Name}
		}
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, p.Name)
		}
		if it.Quantity > p.Stock-required[p.ID] {
			requested := required[p.ID] + it.Quantity
			if requested < it.Quantity {
				requested = math.MaxInt
			}
			return nil, &InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.Stock,
				Requested: requested,
			}
		}
		required[p.ID] += it.Quantity
		subtotal, ok := mulAmount(p.Price, it.Quantity)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAmountTooLarge, p.Name)
		}
		lines = append(lines, line{
			item: Item{
				ProductID: p.ID,
				Name:      p.Name,
				Price:     p.Price,
				Quantity:  it.Quantity,
				Subtotal:  subtotal,
			},
			shopID: p.ShopID,
		})
	}
	return lines, nil
}

// partition groups lines by shop, in order of first appearance, and builds
// one new order per group.
func (s *Service) partition(clientID string, mode PaymentMode, notes string, lines []line) ([]*Order, error) {
	now := s.now()
	byShop := make(map[string]*Order)
	var orders []*Order
	for _, l := range lines {
		o, ok := byShop[l.shopID]
		if !ok {
			o = &Order{
				ID:          uuid.New().String(),
				Number:      newNumber(now),
				ClientID:    clientID,
				ShopID:      l.shopID,
				Items:       []Item{},
				Status:      StatusNew,
				PaymentMode: mode,
				Paid:        mode == PaymentOnline,
				Notes:       notes,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			byShop[l.shopID] = o
			orders = append(orders, o)
		}
		o.Items = append(o.Items, l.item)
		if o.Total > math.MaxInt-l.item.Subtotal {
			return nil, fmt.Errorf("%w: shop %s", ErrAmountTooLarge, l.shopID)
		}
		o.Total += l.item.Subtotal
	}
	return orders, nil
}

// mulAmount returns price*quantity for non-negative operands, and false when
// the product does not fit in an int.
func mulAmount(price, quantity int) (int, bool) {
	if price != 0 && quantity > math.MaxInt/price {
		return 0, false
	}
	return price * quantity, true
}

// newNumber builds a human-readable order number like CMD-20240131-9F86D081.
func newNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("CMD-%s-%s", now.Format("20060102"), suffix)
}
