package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"

	"github.com/example/mall-backoffice/internal/domain/cart"
	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/domain/product"
	"github.com/example/mall-backoffice/internal/projection"
)

// ============================================
// Products
// ============================================

const productColumns = `id, name, description, price, stock, shop_id, category, images, active, created_at, updated_at`

func scanProduct(row scanner) (*product.Product, error) {
	var p product.Product
	var images []byte
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.ShopID,
		&p.Category, &images, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Images = []string{}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func imagesJSON(images []string) []byte {
	if images == nil {
		images = []string{}
	}
	b, _ := json.Marshal(images)
	return b
}

func (s *Postgres) CreateProduct(ctx context.Context, p *product.Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.ShopID,
		p.Category, imagesJSON(p.Images), p.Active, p.CreatedAt, p.UpdatedAt)
	return wrapErr("create product", err, nil)
}

func (s *Postgres) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, product.ErrProductNotFound
	}
	return p, wrapErr("get product", err, nil)
}

func (s *Postgres) ListProducts(ctx context.Context, f product.Filter) ([]*product.Product, int, error) {
	var w where
	if f.ShopID != "" {
		w.add("shop_id = $%d", f.ShopID)
	}
	if f.Category != "" {
		w.add("category = $%d", f.Category)
	}
	if f.Active != nil {
		w.add("active = $%d", *f.Active)
	}
	if f.Search != "" {
		w.add("(name ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+f.Search+"%")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count products", err, nil)
	}

	query := `SELECT ` + productColumns + ` FROM products` + w.String() + ` ORDER BY created_at DESC, id`
	query += w.paginate(f.Offset, f.Limit)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, wrapErr("list products", err, nil)
	}
	defer closeRows(rows)

	products := []*product.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, wrapErr("list products", err, nil)
		}
		products = append(products, p)
	}
	return products, total, wrapErr("list products", rows.Err(), nil)
}

func (s *Postgres) UpdateProduct(ctx context.Context, p *product.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET name = $2, description = $3, price = $4, stock = $5, category = $6,
			images = $7, active = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category,
		imagesJSON(p.Images), p.Active, p.UpdatedAt)
	if err != nil {
		return wrapErr("update product", err, nil)
	}
	return requireRow("update product", res, product.ErrProductNotFound)
}

func (s *Postgres) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete product", err, nil)
	}
	return requireRow("delete product", res, product.ErrProductNotFound)
}

// ============================================
// Carts
// ============================================

func getCart(ctx context.Context, q querier, clientID string, lock bool) (*cart.Cart, error) {
	query := `SELECT id, client_id, items, total, updated_at FROM carts WHERE client_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var c cart.Cart
	var items []byte
	err := q.QueryRowContext(ctx, query, clientID).Scan(&c.ID, &c.ClientID, &items, &c.Total, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrCartNotFound
	}
	if err != nil {
		return nil, wrapErr("get cart", err, nil)
	}
	c.Items = []cart.CartItem{}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, wrapErr("decode cart", err, nil)
	}
	return &c, nil
}

func saveCart(ctx context.Context, q querier, c *cart.Cart) error {
	items := c.Items
	if items == nil {
		items = []cart.CartItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return wrapErr("encode cart", err, nil)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO carts (client_id, id, items, total, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (client_id) DO UPDATE SET
			items = EXCLUDED.items,
			total = EXCLUDED.total,
			updated_at = EXCLUDED.updated_at
	`, c.ClientID, c.ID, itemsJSON, c.Total, c.UpdatedAt)
	return wrapErr("save cart", err, nil)
}

func (s *Postgres) GetCart(ctx context.Context, clientID string) (*cart.Cart, error) {
	return getCart(ctx, s.db, clientID, false)
}

func (s *Postgres) SaveCart(ctx context.Context, c *cart.Cart) error {
	return saveCart(ctx, s.db, c)
}

// ============================================
// Orders
// ============================================

const orderColumns = `id, number, client_id, shop_id, items, total, status, payment_mode, paid, notes, delivered_at, created_at, updated_at`

func scanOrder(row scanner) (*order.Order, error) {
	var o order.Order
	var items []byte
	var delivered sql.NullTime
	err := row.Scan(&o.ID, &o.Number, &o.ClientID, &o.ShopID, &items, &o.Total, &o.Status,
		&o.PaymentMode, &o.Paid, &o.Notes, &delivered, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, err
	}
	if delivered.Valid {
		o.DeliveredAt = &delivered.Time
	}
	return &o, nil
}

func (s *Postgres) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	return o, wrapErr("get order", err, nil)
}

func (s *Postgres) ListOrders(ctx context.Context, f order.Filter) ([]*order.Order, int, error) {
	var w where
	if f.ClientID != "" {
		w.add("client_id = $%d", f.ClientID)
	}
	if f.ShopID != "" {
		w.add("shop_id = $%d", f.ShopID)
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	if !f.From.IsZero() {
		w.add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		w.add("created_at <= $%d", f.To)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, wrapErr("count orders", err, nil)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + w.String() + ` ORDER BY created_at DESC, number DESC`
	query += w.paginate(f.Offset, f.Limit)
	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, wrapErr("list orders", err, nil)
	}
	defer closeRows(rows)

	orders := []*order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, wrapErr("list orders", err, nil)
		}
		orders = append(orders, o)
	}
	return orders, total, wrapErr("list orders", rows.Err(), nil)
}

func (s *Postgres) UpdateOrder(ctx context.Context, o *order.Order) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, paid = $3, notes = $4, delivered_at = $5, updated_at = $6
		WHERE id = $1
	`, o.ID, o.Status, o.Paid, o.Notes, nullTime(o.DeliveredAt), o.UpdatedAt)
	if err != nil {
		return wrapErr("update order", err, nil)
	}
	return requireRow("update order", res, order.ErrOrderNotFound)
}

// WithinCheckout runs fn in a READ COMMITTED transaction. The cart and
// product rows fn reads are locked with SELECT ... FOR UPDATE, and stock is
// decremented with a guarded UPDATE, so concurrent checkouts cannot
// oversell.
func (s *Postgres) WithinCheckout(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return wrapErr("begin checkout", err, nil)
	}
	if err := fn(ctx, &pgTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("[Postgres] Rollback failed: %v", rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return wrapErr("commit checkout", err, nil)
	}
	return nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockCart(ctx context.Context, clientID string) (*cart.Cart, error) {
	return getCart(ctx, t.tx, clientID, true)
}

func (t *pgTx) LockProducts(ctx context.Context, ids []string) (map[string]*product.Product, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, pq.Array(ids))
	if err != nil {
		return nil, wrapErr("lock products", err, nil)
	}
	defer closeRows(rows)

	products := make(map[string]*product.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrapErr("lock products", err, nil)
		}
		products[p.ID] = p
	}
	return products, wrapErr("lock products", rows.Err(), nil)
}

func (t *pgTx) InsertOrder(ctx context.Context, o *order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return wrapErr("encode order", err, nil)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, o.ID, o.Number, o.ClientID, o.ShopID, items, o.Total, o.Status,
		o.PaymentMode, o.Paid, o.Notes, nullTime(o.DeliveredAt), o.CreatedAt, o.UpdatedAt)
	return wrapErr("insert order", err, ErrOrderNumberTaken)
}

func (t *pgTx) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: product %s", order.ErrInvalidQuantity, productID)
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products SET stock = stock - $1, updated_at = $3
		WHERE id = $2 AND stock >= $1
	`, quantity, productID, time.Now())
	if err != nil {
		return wrapErr("decrement stock", err, nil)
	}
	return requireRow("decrement stock", res,
		fmt.Errorf("%w: product %s", order.ErrInsufficientStock, productID))
}

func (t *pgTx) SaveCart(ctx context.Context, c *cart.Cart) error {
	return saveCart(ctx, t.tx, c)
}

// ============================================
// Sales projection
// ============================================

// dateString formats the UTC day of t for a DATE column, independent of the
// session time zone.
func dateString(t time.Time) string {
	return projection.Day(t).Format("2006-01-02")
}

// ApplySales records eventID and adds d to its day in one transaction.
func (s *Postgres) ApplySales(ctx context.Context, eventID string, d projection.Delta) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, wrapErr("begin sales", err, nil)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO processed_events (event_id, processed_at) VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`, eventID, time.Now())
	if err != nil {
		return false, wrapErr("record event", err, nil)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, wrapErr("record event", err, nil)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shop_sales (shop_id, day, orders, revenue, paid_revenue)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (shop_id, day) DO UPDATE SET
			orders = shop_sales.orders + EXCLUDED.orders,
			revenue = shop_sales.revenue + EXCLUDED.revenue,
			paid_revenue = shop_sales.paid_revenue + EXCLUDED.paid_revenue
	`, d.ShopID, dateString(d.Day), d.Orders, d.Revenue, d.PaidRevenue)
	if err != nil {
		return false, wrapErr("apply sales", err, nil)
	}
	if err := tx.Commit(); err != nil {
		return false, wrapErr("commit sales", err, nil)
	}
	return true, nil
}

func (s *Postgres) ListSales(ctx context.Context, f projection.SalesFilter) ([]projection.DailySales, error) {
	var w where
	if f.ShopID != "" {
		w.add("shop_id = $%d", f.ShopID)
	}
	if !f.From.IsZero() {
		w.add("day >= $%d", dateString(f.From))
	}
	if !f.To.IsZero() {
		w.add("day <= $%d", dateString(f.To))
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT shop_id, day, orders, revenue, paid_revenue FROM shop_sales`+w.String()+`
		ORDER BY day, shop_id
	`, w.args...)
	if err != nil {
		return nil, wrapErr("list sales", err, nil)
	}
	defer closeRows(rows)

	sales := []projection.DailySales{}
	for rows.Next() {
		var d projection.DailySales
		if err := rows.Scan(&d.ShopID, &d.Day, &d.Orders, &d.Revenue, &d.PaidRevenue); err != nil {
			return nil, wrapErr("list sales", err, nil)
		}
		d.Day = projection.Day(d.Day)
		sales = append(sales, d)
	}
	return sales, wrapErr("list sales", rows.Err(), nil)
}
