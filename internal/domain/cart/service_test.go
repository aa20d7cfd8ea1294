package cart_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/domain/cart"
	"github.com/example/mall-backoffice/internal/domain/product"
	"github.com/example/mall-backoffice/internal/infrastructure/store"
)

func newTestCartService(t *testing.T) (*cart.Service, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	return cart.NewService(m, m), m
}

func addProduct(t *testing.T, m *store.Memory, id string, price, stock int, active bool) *product.Product {
	t.Helper()
	p := &product.Product{ID: id, Name: "Product " + id, Price: price, Stock: stock, ShopID: "shop-1",
		Category: product.CategoryOther, Images: []string{id + ".jpg"}, Active: active}
	require.NoError(t, m.CreateProduct(context.Background(), p))
	return p
}

func TestService_GetWithoutCart(t *testing.T) {
	svc, _ := newTestCartService(t)

	v, err := svc.Get(context.Background(), "client-1")

	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.Zero(t, v.Total)
	assert.Equal(t, "client-1", v.ClientID)
}

func TestService_AddItem(t *testing.T) {
	svc, m := newTestCartService(t)
	addProduct(t, m, "p1", 250, 5, true)
	ctx := context.Background()

	v, err := svc.AddItem(ctx, "client-1", "p1", 2)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "Product p1", v.Items[0].Name)
	assert.Equal(t, "p1.jpg", v.Items[0].Image)
	assert.Equal(t, 500, v.Items[0].Subtotal)
	assert.Equal(t, 500, v.Total)

	v, err = svc.AddItem(ctx, "client-1", "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Items[0].Quantity)
	assert.Equal(t, 5, v.ItemCount)
}

func TestService_AddItemRejections(t *testing.T) {
	svc, m := newTestCartService(t)
	addProduct(t, m, "p1", 100, 2, true)
	addProduct(t, m, "off", 100, 2, false)
	ctx := context.Background()

	tests := []struct {
		name      string
		productID string
		quantity  int
		want      error
	}{
		{"no product", "", 1, cart.ErrInvalidProduct},
		{"zero quantity", "p1", 0, cart.ErrInvalidQuantity},
		{"unknown product", "nope", 1, product.ErrProductNotFound},
		{"inactive", "off", 1, cart.ErrProductInactive},
		{"over stock", "p1", 3, cart.ErrNotEnoughInStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, "client-1", tt.productID, tt.quantity)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_AddItemCumulativeStock(t *testing.T) {
	svc, m := newTestCartService(t)
	addProduct(t, m, "p1", 100, 3, true)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "client-1", "p1", 2)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "client-1", "p1", 2)
	assert.ErrorIs(t, err, cart.ErrNotEnoughInStock)
	assert.Equal(t, 400, apperr.StatusOf(err))
	assert.Contains(t, err.Error(), "Product p1 has only 3 in stock")
	assert.Contains(t, err.Error(), "2 already in cart")
}

func TestService_AddItemHugeQuantityKeepsCartValid(t *testing.T) {
	svc, m := newTestCartService(t)
	addProduct(t, m, "p1", 100, 5, true)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "client-1", "p1", 1)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, "client-1", "p1", math.MaxInt)
	assert.ErrorIs(t, err, cart.ErrNotEnoughInStock)

	c, err := m.GetCart(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 100, c.Total)
}

func TestService_UpdateQuantityNamesProduct(t *testing.T) {
	svc, m := newTestCartService(t)
	addProduct(t, m, "p1", 100, 2, true)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "client-1", "p1", 1)
	require.NoError(t, err)

	_, err = svc.UpdateQuantity(ctx, "client-1", "p1", 3)

	assert.ErrorIs(t, err, cart.ErrNotEnoughInStock)
	assert.EqualError(t, err, "not enough stock for the requested quantity: Product p1 has only 2 in stock, 3 requested")
}

func TestService_UpdateRemoveClear(t *testing.T) {
	svc, m := newTestCartService(t)
	addProduct(t, m, "p1", 100, 10, true)
	addProduct(t, m, "p2", 30, 10, true)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "client-1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "client-1", "p2", 1)
	require.NoError(t, err)

	v, err := svc.UpdateQuantity(ctx, "client-1", "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 430, v.Total)

	_, err = svc.UpdateQuantity(ctx, "client-1", "p1", 11)
	assert.ErrorIs(t, err, cart.ErrNotEnoughInStock)

	v, err = svc.RemoveItem(ctx, "client-1", "p2")
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)

	_, err = svc.RemoveItem(ctx, "client-1", "p2")
	assert.ErrorIs(t, err, cart.ErrItemNotInCart)

	require.NoError(t, svc.Clear(ctx, "client-1"))
	totals, err := svc.Totals(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, cart.Totals{}, totals)
}

func TestService_GetHidesUnavailableProducts(t *testing.T) {
	svc, m := newTestCartService(t)
	addProduct(t, m, "p1", 100, 10, true)
	p2 := addProduct(t, m, "p2", 50, 10, true)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "client-1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "client-1", "p2", 1)
	require.NoError(t, err)

	p2.Active = false
	require.NoError(t, m.UpdateProduct(ctx, p2))

	v, err := svc.Get(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "p1", v.Items[0].ProductID)
	assert.Equal(t, 100, v.Total)
}
