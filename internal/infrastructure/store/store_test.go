package store

import (
	"context"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/cart"
	"github.com/example/mall-backoffice/internal/domain/employee"
	"github.com/example/mall-backoffice/internal/domain/lease"
	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/domain/payment"
	"github.com/example/mall-backoffice/internal/domain/product"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/domain/zone"
	"github.com/example/mall-backoffice/internal/projection"
)

// stores returns the implementations under test. Postgres is included when
// TEST_DATABASE_URL points at a scratch database; `make test-postgres` starts
// one in Docker and runs this package against it.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	out := map[string]Store{"memory": NewMemory()}

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return out
	}
	db, err := ConnectPostgres(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pg := NewPostgres(db)
	require.NoError(t, pg.Migrate(context.Background()))
	for _, table := range []string{"processed_events", "shop_sales", "orders", "carts", "products",
		"salary_payments", "employees", "payments", "leases", "shops", "zones", "users"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
	out["postgres"] = pg
	return out
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) { fn(t, s) })
	}
}

var base = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, s Store, role auth.Role, email string) *user.User {
	t.Helper()
	u := &user.User{
		ID:           uuid.New().String(),
		LastName:     "Diallo",
		FirstName:    "Awa",
		Email:        email,
		PasswordHash: "hash",
		Role:         role,
		Active:       true,
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedZone(t *testing.T, s Store) *zone.Zone {
	t.Helper()
	z := &zone.Zone{ID: uuid.New().String(), Name: "Ground floor", Area: 1200, CreatedAt: base, UpdatedAt: base}
	require.NoError(t, s.CreateZone(context.Background(), z))
	return z
}

func seedShop(t *testing.T, s Store, zoneID, number, merchantID string) *shop.Shop {
	t.Helper()
	sh := &shop.Shop{
		ID:         uuid.New().String(),
		Number:     number,
		Name:       "Shop " + number,
		Category:   shop.CategoryFashion,
		Area:       40,
		ZoneID:     zoneID,
		Status:     shop.StatusFree,
		MerchantID: merchantID,
		Active:     true,
		CreatedAt:  base,
		UpdatedAt:  base,
	}
	if merchantID != "" {
		sh.Status = shop.StatusOccupied
	}
	require.NoError(t, s.CreateShop(context.Background(), sh))
	return sh
}

func seedProduct(t *testing.T, s Store, shopID string, price, stock int) *product.Product {
	t.Helper()
	p := &product.Product{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Item %d", price),
		Price:     price,
		Stock:     stock,
		ShopID:    shopID,
		Category:  product.CategoryOther,
		Images:    []string{"a.jpg"},
		Active:    true,
		CreatedAt: base,
		UpdatedAt: base,
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

// ============================================
// Users, zones, shops
// ============================================

func TestStore_UserEmailUnique(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedUser(t, s, auth.RoleClient, "awa@example.com")

		dup := &user.User{ID: uuid.New().String(), LastName: "X", Email: "awa@example.com",
			PasswordHash: "h", Role: auth.RoleClient, CreatedAt: base, UpdatedAt: base}
		err := s.CreateUser(ctx, dup)

		assert.ErrorIs(t, err, user.ErrEmailTaken)
		assert.ErrorIs(t, err, apperr.ErrDuplicate)
	})
}

func TestStore_UserLookupAndList(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		merchant := seedUser(t, s, auth.RoleMerchant, "m@example.com")
		seedUser(t, s, auth.RoleClient, "c@example.com")

		got, err := s.GetUserByEmail(ctx, "m@example.com")
		require.NoError(t, err)
		assert.Equal(t, merchant.ID, got.ID)

		merchants, err := s.ListUsers(ctx, user.Filter{Role: auth.RoleMerchant})
		require.NoError(t, err)
		require.Len(t, merchants, 1)
		assert.Equal(t, merchant.ID, merchants[0].ID)

		_, err = s.GetUser(ctx, "missing")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}

func TestStore_ReturnsCopies(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		z := seedZone(t, s)
		sh := seedShop(t, s, z.ID, "A-01", "")
		p := seedProduct(t, s, sh.ID, 100, 5)

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		got.Stock = 0
		got.Images[0] = "changed.jpg"

		again, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, again.Stock)
		assert.Equal(t, []string{"a.jpg"}, again.Images)
	})
}

func TestStore_ShopNumberUniqueAndFilters(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		z := seedZone(t, s)
		merchant := seedUser(t, s, auth.RoleMerchant, "m@example.com")
		seedShop(t, s, z.ID, "A-01", merchant.ID)
		seedShop(t, s, z.ID, "A-02", "")

		dup := &shop.Shop{ID: uuid.New().String(), Number: "A-01", Name: "Dup", Category: shop.CategoryOther,
			Area: 10, ZoneID: z.ID, Status: shop.StatusFree, CreatedAt: base, UpdatedAt: base}
		assert.ErrorIs(t, s.CreateShop(ctx, dup), shop.ErrNumberTaken)

		occupied, err := s.ListShops(ctx, shop.Filter{Status: shop.StatusOccupied})
		require.NoError(t, err)
		require.Len(t, occupied, 1)
		assert.Equal(t, merchant.ID, occupied[0].MerchantID)

		free, err := s.ListShops(ctx, shop.Filter{Status: shop.StatusFree})
		require.NoError(t, err)
		require.Len(t, free, 1)
		assert.Empty(t, free[0].MerchantID)

		n, err := s.CountShopsInZone(ctx, z.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestStore_DeleteZoneInUse(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		z := seedZone(t, s)
		seedShop(t, s, z.ID, "A-01", "")

		assert.ErrorIs(t, s.DeleteZone(ctx, z.ID), zone.ErrZoneInUse)
		assert.ErrorIs(t, s.DeleteZone(ctx, "missing"), zone.ErrZoneNotFound)
	})
}

// ============================================
// Leases, payments, payroll
// ============================================

func TestStore_PaymentPeriodUnique(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		z := seedZone(t, s)
		merchant := seedUser(t, s, auth.RoleMerchant, "m@example.com")
		sh := seedShop(t, s, z.ID, "A-01", merchant.ID)
		l := &lease.Lease{ID: uuid.New().String(), ShopID: sh.ID, MerchantID: merchant.ID, Amount: 500,
			Periodicity: lease.Monthly, StartDate: base, Status: lease.StatusActive, CreatedAt: base, UpdatedAt: base}
		require.NoError(t, s.CreateLease(ctx, l))

		newPayment := func() *payment.Payment {
			return &payment.Payment{ID: uuid.New().String(), LeaseID: l.ID, MerchantID: merchant.ID, Amount: 500,
				Month: 3, Year: 2024, PaidAt: base, Method: payment.MethodCash, Status: payment.StatusPaid,
				CreatedAt: base, UpdatedAt: base}
		}
		require.NoError(t, s.CreatePayment(ctx, newPayment()))
		assert.ErrorIs(t, s.CreatePayment(ctx, newPayment()), payment.ErrDuplicate)

		list, err := s.ListPayments(ctx, payment.Filter{MerchantID: merchant.ID, Year: 2024})
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, s.DeleteLease(ctx, l.ID))
		list, err = s.ListPayments(ctx, payment.Filter{LeaseID: l.ID})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestStore_LeaseEndDateRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		z := seedZone(t, s)
		merchant := seedUser(t, s, auth.RoleMerchant, "m@example.com")
		sh := seedShop(t, s, z.ID, "A-01", merchant.ID)
		end := base.AddDate(1, 0, 0)
		l := &lease.Lease{ID: uuid.New().String(), ShopID: sh.ID, MerchantID: merchant.ID, Amount: 500,
			Periodicity: lease.Yearly, StartDate: base, EndDate: &end, Status: lease.StatusActive,
			CreatedAt: base, UpdatedAt: base}
		require.NoError(t, s.CreateLease(ctx, l))

		got, err := s.GetLease(ctx, l.ID)
		require.NoError(t, err)
		require.NotNil(t, got.EndDate)
		assert.True(t, end.Equal(*got.EndDate))
	})
}

func TestStore_SalaryPeriodUnique(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		e := &employee.Employee{ID: uuid.New().String(), LastName: "Ba", FirstName: "Moussa", Email: "mb@example.com",
			Position: employee.PositionSecurity, Salary: 300, HiredAt: base, Active: true, CreatedAt: base, UpdatedAt: base}
		require.NoError(t, s.CreateEmployee(ctx, e))

		pay := func() *employee.SalaryPayment {
			return &employee.SalaryPayment{ID: uuid.New().String(), EmployeeID: e.ID, Amount: 300, Month: 1, Year: 2024,
				PaidAt: base, Method: employee.SalaryCash, Status: employee.SalaryPaid, CreatedAt: base}
		}
		require.NoError(t, s.CreateSalaryPayment(ctx, pay()))
		assert.ErrorIs(t, s.CreateSalaryPayment(ctx, pay()), employee.ErrDuplicateSalary)

		list, err := s.ListSalaryPayments(ctx, employee.SalaryFilter{Year: 2024})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

// ============================================
// Products and carts
// ============================================

func TestStore_ListProductsPaginatesAndSearches(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		z := seedZone(t, s)
		sh := seedShop(t, s, z.ID, "A-01", "")
		for i := 1; i <= 5; i++ {
			seedProduct(t, s, sh.ID, i*100, 1)
		}

		page, total, err := s.ListProducts(ctx, product.Filter{ShopID: sh.ID, Offset: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Len(t, page, 2)

		found, total, err := s.ListProducts(ctx, product.Filter{Search: "item 300"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, 300, found[0].Price)
	})
}

func TestStore_CartUpsert(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		client := seedUser(t, s, auth.RoleClient, "c@example.com")

		_, err := s.GetCart(ctx, client.ID)
		assert.ErrorIs(t, err, cart.ErrCartNotFound)

		c := cart.New(uuid.New().String(), client.ID)
		c.Add("p1", 2, 150)
		c.UpdatedAt = base
		require.NoError(t, s.SaveCart(ctx, c))

		c.Add("p2", 1, 50)
		require.NoError(t, s.SaveCart(ctx, c))

		got, err := s.GetCart(ctx, client.ID)
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)
		assert.Equal(t, 350, got.Total)
	})
}

// ============================================
// Checkout transaction
// ============================================

func seedCheckout(t *testing.T, s Store, stock int) (*user.User, *shop.Shop, *product.Product) {
	t.Helper()
	z := seedZone(t, s)
	client := seedUser(t, s, auth.RoleClient, "c@example.com")
	sh := seedShop(t, s, z.ID, "A-01", "")
	p := seedProduct(t, s, sh.ID, 200, stock)
	c := cart.New(uuid.New().String(), client.ID)
	c.Add(p.ID, 2, p.Price)
	c.UpdatedAt = base
	require.NoError(t, s.SaveCart(context.Background(), c))
	return client, sh, p
}

func newOrder(clientID, shopID string, p *product.Product, qty int) *order.Order {
	return &order.Order{
		ID:          uuid.New().String(),
		Number:      "CMD-20240315-" + uuid.New().String()[:8],
		ClientID:    clientID,
		ShopID:      shopID,
		Items:       []order.Item{{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty, Subtotal: p.Price * qty}},
		Total:       p.Price * qty,
		Status:      order.StatusNew,
		PaymentMode: order.PaymentDelivery,
		CreatedAt:   base,
		UpdatedAt:   base,
	}
}

func TestStore_CheckoutCommits(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		client, sh, p := seedCheckout(t, s, 5)

		err := s.WithinCheckout(ctx, func(ctx context.Context, tx order.Tx) error {
			c, err := tx.LockCart(ctx, client.ID)
			if err != nil {
				return err
			}
			locked, err := tx.LockProducts(ctx, []string{p.ID})
			if err != nil {
				return err
			}
			if locked[p.ID] == nil {
				return fmt.Errorf("product not locked")
			}
			if err := tx.InsertOrder(ctx, newOrder(client.ID, sh.ID, p, 2)); err != nil {
				return err
			}
			if err := tx.DecrementStock(ctx, p.ID, 2); err != nil {
				return err
			}
			c.Clear()
			return tx.SaveCart(ctx, c)
		})
		require.NoError(t, err)

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Stock)

		c, err := s.GetCart(ctx, client.ID)
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())

		orders, total, err := s.ListOrders(ctx, order.Filter{ClientID: client.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, 400, orders[0].Total)
	})
}

func TestStore_CheckoutRollsBackOnError(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		client, sh, p := seedCheckout(t, s, 3)

		err := s.WithinCheckout(ctx, func(ctx context.Context, tx order.Tx) error {
			if err := tx.InsertOrder(ctx, newOrder(client.ID, sh.ID, p, 2)); err != nil {
				return err
			}
			if err := tx.DecrementStock(ctx, p.ID, 2); err != nil {
				return err
			}
			return tx.DecrementStock(ctx, p.ID, 2)
		})
		assert.ErrorIs(t, err, order.ErrInsufficientStock)

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Stock)

		_, total, err := s.ListOrders(ctx, order.Filter{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

func TestStore_DecrementStockRejectsNonPositive(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, _, p := seedCheckout(t, s, 5)

		for _, qty := range []int{0, -1, math.MinInt} {
			err := s.WithinCheckout(ctx, func(ctx context.Context, tx order.Tx) error {
				return tx.DecrementStock(ctx, p.ID, qty)
			})
			assert.ErrorIs(t, err, order.ErrInvalidQuantity, "quantity %d", qty)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		}

		got, err := s.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Stock)
	})
}

func TestStore_CheckoutMissingCartAndProducts(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		err := s.WithinCheckout(context.Background(), func(ctx context.Context, tx order.Tx) error {
			_, err := tx.LockCart(ctx, "nobody")
			assert.ErrorIs(t, err, cart.ErrCartNotFound)

			products, err := tx.LockProducts(ctx, []string{"missing"})
			require.NoError(t, err)
			assert.Empty(t, products)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestStore_CheckoutExpiredContext(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		client, sh, p := seedCheckout(t, s, 5)
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		defer cancel()

		err := s.WithinCheckout(ctx, func(ctx context.Context, tx order.Tx) error {
			<-ctx.Done()
			return tx.InsertOrder(ctx, newOrder(client.ID, sh.ID, p, 1))
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrTimeout)

		got, err := s.GetProduct(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Stock)
	})
}

// ============================================
// Orders and sales
// ============================================

func TestStore_UpdateOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		client, sh, p := seedCheckout(t, s, 5)
		o := newOrder(client.ID, sh.ID, p, 1)
		require.NoError(t, s.WithinCheckout(ctx, func(ctx context.Context, tx order.Tx) error {
			return tx.InsertOrder(ctx, o)
		}))

		delivered := base.Add(time.Hour)
		o.Status = order.StatusDelivered
		o.DeliveredAt = &delivered
		o.Paid = true
		require.NoError(t, s.UpdateOrder(ctx, o))

		got, err := s.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusDelivered, got.Status)
		assert.True(t, got.Paid)
		require.NotNil(t, got.DeliveredAt)
		assert.True(t, delivered.Equal(*got.DeliveredAt))

		missing := *o
		missing.ID = "missing"
		assert.ErrorIs(t, s.UpdateOrder(ctx, &missing), order.ErrOrderNotFound)
	})
}

func TestStore_ApplySalesIsIdempotent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		d := projection.Delta{ShopID: "shop-1", Day: base, Orders: 1, Revenue: 400, PaidRevenue: 400}

		applied, err := s.ApplySales(ctx, "evt-1", d)
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = s.ApplySales(ctx, "evt-1", d)
		require.NoError(t, err)
		assert.False(t, applied)

		_, err = s.ApplySales(ctx, "evt-2", projection.Delta{ShopID: "shop-1", Day: base.Add(2 * time.Hour), Orders: -1, Revenue: -400})
		require.NoError(t, err)

		rows, err := s.ListSales(ctx, projection.SalesFilter{ShopID: "shop-1", From: base, To: base})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 0, rows[0].Orders)
		assert.Equal(t, 0, rows[0].Revenue)
		assert.Equal(t, 400, rows[0].PaidRevenue)
		assert.True(t, projection.Day(base).Equal(rows[0].Day))
	})
}
