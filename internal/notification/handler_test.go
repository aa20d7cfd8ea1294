package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/domain/user"
	"github.com/example/mall-backoffice/internal/email"
	"github.com/example/mall-backoffice/internal/events"
	"github.com/example/mall-backoffice/internal/infrastructure/store"
	"github.com/example/mall-backoffice/internal/notification"
)

type sentMail struct {
	to string
	c  email.OrderConfirmation
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (s *fakeSender) SendOrderConfirmation(to string, c email.OrderConfirmation) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMail{to: to, c: c})
	return nil
}

func newTestHandler(t *testing.T) (*notification.Handler, *fakeSender) {
	t.Helper()
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.CreateUser(ctx, &user.User{ID: "client-1", FirstName: "Awa", LastName: "Diallo",
		Email: "awa@example.com", Role: auth.RoleClient, Active: true}))
	require.NoError(t, m.CreateShop(ctx, &shop.Shop{ID: "shop-1", Number: "A-01", Name: "Leather Corner",
		ZoneID: "zone-1", Category: shop.CategoryFashion, Area: 30, Status: shop.StatusFree, Active: true}))
	sender := &fakeSender{}
	return notification.NewHandler(sender, m), sender
}

func placed(t *testing.T, p order.OrderPlaced) []byte {
	t.Helper()
	e, err := events.New(order.EventOrderPlaced, p.OrderID, p)
	require.NoError(t, err)
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	return raw
}

func samplePlaced() order.OrderPlaced {
	return order.OrderPlaced{
		OrderID:     "order-1",
		Number:      "CMD-20260512-0A1B2C3D",
		ClientID:    "client-1",
		ShopID:      "shop-1",
		Items:       []order.Item{{ProductID: "p-1", Name: "Belt", Price: 4000, Quantity: 2, Subtotal: 8000}, {ProductID: "p-2", Price: 500, Quantity: 1, Subtotal: 500}},
		Total:       8500,
		PaymentMode: order.PaymentOnline,
		Paid:        true,
		PlacedAt:    time.Now(),
	}
}

func TestHandler_OrderPlacedSendsConfirmation(t *testing.T) {
	h, sender := newTestHandler(t)

	require.NoError(t, h.HandleEvent(context.Background(), []byte("order-1"), placed(t, samplePlaced())))

	require.Len(t, sender.sent, 1)
	mail := sender.sent[0]
	assert.Equal(t, "awa@example.com", mail.to)
	assert.Equal(t, "Leather Corner", mail.c.ShopName)
	assert.Equal(t, "Awa Diallo", mail.c.ClientName)
	assert.Equal(t, 8500, mail.c.Total)
	assert.True(t, mail.c.Paid)
	assert.Equal(t, []email.OrderItem{{Name: "Belt", Quantity: 2, Price: 4000}, {Name: "p-2", Quantity: 1, Price: 500}}, mail.c.Items)
}

func TestHandler_UnknownClientIsSkipped(t *testing.T) {
	h, sender := newTestHandler(t)
	p := samplePlaced()
	p.ClientID = "ghost"

	require.NoError(t, h.HandleEvent(context.Background(), nil, placed(t, p)))
	assert.Empty(t, sender.sent)
}

func TestHandler_MissingShopFallsBackToID(t *testing.T) {
	h, sender := newTestHandler(t)
	p := samplePlaced()
	p.ShopID = "shop-gone"

	require.NoError(t, h.HandleEvent(context.Background(), nil, placed(t, p)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "shop-gone", sender.sent[0].c.ShopName)
}

func TestHandler_IgnoresOtherEvents(t *testing.T) {
	h, sender := newTestHandler(t)
	e, err := events.New(order.EventOrderPaid, "order-1", order.OrderPaid{OrderID: "order-1"})
	require.NoError(t, err)
	raw, err := json.Marshal(e)
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(context.Background(), nil, raw))
	assert.Empty(t, sender.sent)
}

func TestHandler_Errors(t *testing.T) {
	h, sender := newTestHandler(t)

	assert.Error(t, h.HandleEvent(context.Background(), nil, []byte("{")))

	sender.err = errors.New("smtp: 421 service not available")
	assert.Error(t, h.HandleEvent(context.Background(), nil, placed(t, samplePlaced())))
}
