package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/mall-backoffice/internal/domain/cart"
	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/domain/product"
	"github.com/example/mall-backoffice/internal/projection"
)

// ============================================
// Products
// ============================================

func cloneProduct(p *product.Product) *product.Product {
	c := *p
	c.Images = append([]string{}, p.Images...)
	return &c
}

func (m *Memory) CreateProduct(ctx context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = cloneProduct(p)
	return nil
}

func (m *Memory) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (m *Memory) ListProducts(ctx context.Context, f product.Filter) ([]*product.Product, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	search := strings.ToLower(f.Search)
	keep := func(p *product.Product) bool {
		return (f.ShopID == "" || p.ShopID == f.ShopID) &&
			(f.Category == "" || p.Category == f.Category) &&
			(f.Active == nil || p.Active == *f.Active) &&
			(search == "" ||
				strings.Contains(strings.ToLower(p.Name), search) ||
				strings.Contains(strings.ToLower(p.Description), search))
	}
	all := collect(m.products, cloneProduct, keep, func(a, b *product.Product) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return page(all, f.Offset, f.Limit), len(all), nil
}

func (m *Memory) UpdateProduct(ctx context.Context, p *product.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return product.ErrProductNotFound
	}
	m.products[p.ID] = cloneProduct(p)
	return nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return product.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func page[T any](items []*T, offset, limit int) []*T {
	if offset >= len(items) {
		return []*T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ============================================
// Carts
// ============================================

func cloneCart(c *cart.Cart) *cart.Cart {
	cp := *c
	cp.Items = append([]cart.CartItem{}, c.Items...)
	return &cp
}

func (m *Memory) GetCart(ctx context.Context, clientID string) (*cart.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.carts[clientID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return cloneCart(c), nil
}

func (m *Memory) SaveCart(ctx context.Context, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.ClientID] = cloneCart(c)
	return nil
}

// ============================================
// Orders
// ============================================

func cloneOrder(o *order.Order) *order.Order {
	c := *o
	c.Items = append([]order.Item{}, o.Items...)
	if o.DeliveredAt != nil {
		at := *o.DeliveredAt
		c.DeliveredAt = &at
	}
	return &c
}

func (m *Memory) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (m *Memory) ListOrders(ctx context.Context, f order.Filter) ([]*order.Order, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keep := func(o *order.Order) bool {
		return (f.ClientID == "" || o.ClientID == f.ClientID) &&
			(f.ShopID == "" || o.ShopID == f.ShopID) &&
			(f.Status == "" || o.Status == f.Status) &&
			(f.From.IsZero() || !o.CreatedAt.Before(f.From)) &&
			(f.To.IsZero() || !o.CreatedAt.After(f.To))
	}
	all := collect(m.orders, cloneOrder, keep, func(a, b *order.Order) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return m.orderSeq[a.ID] > m.orderSeq[b.ID]
	})
	return page(all, f.Offset, f.Limit), len(all), nil
}

func (m *Memory) UpdateOrder(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; !ok {
		return order.ErrOrderNotFound
	}
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *Memory) numberUsed(number string) bool {
	for _, o := range m.orders {
		if o.Number == number {
			return true
		}
	}
	return false
}

// WithinCheckout holds the write lock for the whole of fn, so checkouts are
// serialized. Writes are staged on the transaction and applied only when fn
// succeeds and the context is still live.
func (m *Memory) WithinCheckout(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ctxErr("begin checkout", err)
	}
	tx := &memoryTx{m: m, decrements: make(map[string]int)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return ctxErr("commit checkout", err)
	}
	tx.commit(time.Now())
	return nil
}

// memoryTx stages checkout writes. The store lock is held by the caller.
type memoryTx struct {
	m          *Memory
	decrements map[string]int
	orders     []*order.Order
	cart       *cart.Cart
}

func (tx *memoryTx) LockCart(ctx context.Context, clientID string) (*cart.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, ctxErr("lock cart", err)
	}
	c, ok := tx.m.carts[clientID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return cloneCart(c), nil
}

func (tx *memoryTx) LockProducts(ctx context.Context, ids []string) (map[string]*product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, ctxErr("lock products", err)
	}
	out := make(map[string]*product.Product, len(ids))
	for _, id := range ids {
		if p, ok := tx.m.products[id]; ok {
			c := cloneProduct(p)
			c.Stock -= tx.decrements[id]
			out[id] = c
		}
	}
	return out, nil
}

func (tx *memoryTx) InsertOrder(ctx context.Context, o *order.Order) error {
	if err := ctx.Err(); err != nil {
		return ctxErr("insert order", err)
	}
	if _, ok := tx.m.orders[o.ID]; ok || tx.m.numberUsed(o.Number) {
		return ErrOrderNumberTaken
	}
	for _, staged := range tx.orders {
		if staged.ID == o.ID || staged.Number == o.Number {
			return ErrOrderNumberTaken
		}
	}
	tx.orders = append(tx.orders, cloneOrder(o))
	return nil
}

func (tx *memoryTx) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if err := ctx.Err(); err != nil {
		return ctxErr("decrement stock", err)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: product %s", order.ErrInvalidQuantity, productID)
	}
	p, ok := tx.m.products[productID]
	if !ok {
		return fmt.Errorf("%w: %s", order.ErrProductUnavailable, productID)
	}
	if p.Stock-tx.decrements[productID] < quantity {
		return fmt.Errorf("%w: product %s", order.ErrInsufficientStock, productID)
	}
	tx.decrements[productID] += quantity
	return nil
}

func (tx *memoryTx) SaveCart(ctx context.Context, c *cart.Cart) error {
	if err := ctx.Err(); err != nil {
		return ctxErr("save cart", err)
	}
	tx.cart = cloneCart(c)
	return nil
}

func (tx *memoryTx) commit(now time.Time) {
	m := tx.m
	for id, n := range tx.decrements {
		p := m.products[id]
		p.Stock -= n
		p.UpdatedAt = now
	}
	for _, o := range tx.orders {
		m.orders[o.ID] = o
		m.orderSeq[o.ID] = len(m.orderSeq) + 1
	}
	if tx.cart != nil {
		m.carts[tx.cart.ClientID] = tx.cart
	}
}

// ============================================
// Sales projection
// ============================================

func (m *Memory) ApplySales(ctx context.Context, eventID string, d projection.Delta) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed[eventID] {
		return false, nil
	}
	m.processed[eventID] = true

	day := projection.Day(d.Day)
	key := salesKey{shopID: d.ShopID, day: day.Unix()}
	row, ok := m.sales[key]
	if !ok {
		row = &projection.DailySales{ShopID: d.ShopID, Day: day}
		m.sales[key] = row
	}
	row.Orders += d.Orders
	row.Revenue += d.Revenue
	row.PaidRevenue += d.PaidRevenue
	return true, nil
}

func (m *Memory) ListSales(ctx context.Context, f projection.SalesFilter) ([]projection.DailySales, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []projection.DailySales{}
	for _, row := range m.sales {
		if f.ShopID != "" && row.ShopID != f.ShopID {
			continue
		}
		if !f.From.IsZero() && row.Day.Before(projection.Day(f.From)) {
			continue
		}
		if !f.To.IsZero() && row.Day.After(projection.Day(f.To)) {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Day.Equal(out[j].Day) {
			return out[i].Day.Before(out[j].Day)
		}
		return out[i].ShopID < out[j].ShopID
	})
	return out, nil
}
