package order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mall-backoffice/internal/apperr"
	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/order"
)

func (f *fixture) placeOne(t *testing.T, mode order.PaymentMode) *order.View {
	t.Helper()
	sh := f.addShop(t, "M-01", f.merchant.ID)
	p := f.addProduct(t, sh.ID, "Bag", 1200, 10)
	f.fillCart(t, f.client.ID, line(p, 1))
	views, err := f.svc.PlaceOrder(context.Background(), f.client.ID, mode, "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	return views[0]
}

func admin() auth.Actor {
	return auth.Actor{UserID: "admin-1", Role: auth.RoleAdmin}
}

// ============================================
// ChangeStatus
// ============================================

func TestChangeStatus_AnyStatusFromAnyState(t *testing.T) {
	f := newTestService(t)
	o := f.placeOne(t, order.PaymentDelivery)
	ctx := context.Background()

	for _, st := range []order.Status{order.StatusCancelled, order.StatusReady, order.StatusNew, order.StatusConfirmed} {
		v, err := f.svc.ChangeStatus(ctx, admin(), o.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, v.Status)
	}
}

func TestChangeStatus_DeliveredStampsOnce(t *testing.T) {
	f := newTestService(t)
	o := f.placeOne(t, order.PaymentDelivery)
	ctx := context.Background()
	merchant := auth.Actor{UserID: f.merchant.ID, Role: auth.RoleMerchant}

	v, err := f.svc.ChangeStatus(ctx, merchant, o.ID, order.StatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, v.DeliveredAt)
	first := *v.DeliveredAt

	_, err = f.svc.ChangeStatus(ctx, merchant, o.ID, order.StatusReady)
	require.NoError(t, err)
	v, err = f.svc.ChangeStatus(ctx, merchant, o.ID, order.StatusDelivered)
	require.NoError(t, err)
	assert.True(t, first.Equal(*v.DeliveredAt))

	assert.Contains(t, f.publisher.types(), order.EventOrderStatusChanged)
}

func TestChangeStatus_Rejections(t *testing.T) {
	f := newTestService(t)
	o := f.placeOne(t, order.PaymentDelivery)
	other := f.addUser(t, auth.RoleMerchant, "other@example.com")
	ctx := context.Background()

	tests := []struct {
		name   string
		actor  auth.Actor
		id     string
		status order.Status
		kind   error
	}{
		{"invalid status", admin(), o.ID, order.Status("shipped"), apperr.ErrValidation},
		{"missing order", admin(), "missing", order.StatusReady, apperr.ErrNotFound},
		{"other merchant", auth.Actor{UserID: other.ID, Role: auth.RoleMerchant}, o.ID, order.StatusReady, apperr.ErrForbidden},
		{"client", auth.Actor{UserID: f.client.ID, Role: auth.RoleClient}, o.ID, order.StatusCancelled, apperr.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ChangeStatus(ctx, tt.actor, tt.id, tt.status)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	got, err := f.store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusNew, got.Status)
}

func TestParseStatus_AcceptsLegacyNames(t *testing.T) {
	tests := map[string]order.Status{
		"livree":         order.StatusDelivered,
		"en_preparation": order.StatusPreparing,
		"cancelled":      order.StatusCancelled,
	}
	for in, want := range tests {
		got, err := order.ParseStatus(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := order.ParseStatus("lost")
	assert.ErrorIs(t, err, order.ErrInvalidStatus)
}

func TestParsePaymentMode(t *testing.T) {
	mode, err := order.ParsePaymentMode("en_ligne")
	require.NoError(t, err)
	assert.Equal(t, order.PaymentOnline, mode)

	_, err = order.ParsePaymentMode("bitcoin")
	assert.ErrorIs(t, err, order.ErrInvalidPaymentMode)
}

// ============================================
// MarkPaid
// ============================================

func TestMarkPaid_Idempotent(t *testing.T) {
	f := newTestService(t)
	o := f.placeOne(t, order.PaymentDelivery)
	require.False(t, o.Paid)
	ctx := context.Background()

	v, err := f.svc.MarkPaid(ctx, admin(), o.ID)
	require.NoError(t, err)
	assert.True(t, v.Paid)

	v, err = f.svc.MarkPaid(ctx, admin(), o.ID)
	require.NoError(t, err)
	assert.True(t, v.Paid)

	paidEvents := 0
	for _, typ := range f.publisher.types() {
		if typ == order.EventOrderPaid {
			paidEvents++
		}
	}
	assert.Equal(t, 1, paidEvents)
}

func TestMarkPaid_OnlineOrderAlreadyPaid(t *testing.T) {
	f := newTestService(t)
	o := f.placeOne(t, order.PaymentOnline)

	v, err := f.svc.MarkPaid(context.Background(), admin(), o.ID)

	require.NoError(t, err)
	assert.True(t, v.Paid)
	assert.NotContains(t, f.publisher.types(), order.EventOrderPaid)
}

// ============================================
// Queries
// ============================================

func TestGet_Visibility(t *testing.T) {
	f := newTestService(t)
	o := f.placeOne(t, order.PaymentDelivery)
	stranger := f.addUser(t, auth.RoleClient, "stranger@example.com")
	ctx := context.Background()

	_, err := f.svc.Get(ctx, auth.Actor{UserID: f.client.ID, Role: auth.RoleClient}, o.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, auth.Actor{UserID: f.merchant.ID, Role: auth.RoleMerchant}, o.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, admin(), o.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, auth.Actor{UserID: stranger.ID, Role: auth.RoleClient}, o.ID)
	assert.ErrorIs(t, err, order.ErrNotOrderOwner)
}

func TestListMineAndByShop(t *testing.T) {
	f := newTestService(t)
	o := f.placeOne(t, order.PaymentDelivery)
	ctx := context.Background()

	mine, err := f.svc.ListMine(ctx, f.client.ID, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, o.ID, mine[0].ID)

	none, err := f.svc.ListMine(ctx, f.client.ID, order.StatusDelivered)
	require.NoError(t, err)
	assert.Empty(t, none)

	byShop, err := f.svc.ListByShop(ctx, auth.Actor{UserID: f.merchant.ID, Role: auth.RoleMerchant}, o.ShopID, order.Filter{})
	require.NoError(t, err)
	assert.Len(t, byShop, 1)

	other := f.addUser(t, auth.RoleMerchant, "other@example.com")
	_, err = f.svc.ListByShop(ctx, auth.Actor{UserID: other.ID, Role: auth.RoleMerchant}, o.ShopID, order.Filter{})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestList_Paginates(t *testing.T) {
	f := newTestService(t)
	sh := f.addShop(t, "P-01", "")
	p := f.addProduct(t, sh.ID, "Sock", 10, 100)
	for i := 0; i < 5; i++ {
		f.fillCart(t, f.client.ID, line(p, 1))
		_, err := f.svc.PlaceOrder(context.Background(), f.client.ID, order.PaymentDelivery, "")
		require.NoError(t, err)
	}

	page, err := f.svc.List(context.Background(), order.Filter{}, 2, 2)

	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.Page)
	assert.Len(t, page.Items, 2)
}
