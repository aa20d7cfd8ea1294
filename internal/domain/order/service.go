package order

import (
	"context"
	"log"
	"time"

	"github.com/example/mall-backoffice/internal/auth"
	"github.com/example/mall-backoffice/internal/domain/shop"
	"github.com/example/mall-backoffice/internal/events"
)

const (
	DefaultCheckoutTimeout = 10 * time.Second
	DefaultPageSize        = 20
	MaxPageSize            = 100
	publishTimeout         = 5 * time.Second
)

type Service struct {
	store           Store
	directory       Directory
	publisher       events.Publisher
	checkoutTimeout time.Duration
	now             func() time.Time
}

// NewService creates the order service. A zero timeout selects
// DefaultCheckoutTimeout; a nil publisher only logs events.
func NewService(store Store, directory Directory, publisher events.Publisher, checkoutTimeout time.Duration) *Service {
	if checkoutTimeout <= 0 {
		checkoutTimeout = DefaultCheckoutTimeout
	}
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &Service{
		store:           store,
		directory:       directory,
		publisher:       publisher,
		checkoutTimeout: checkoutTimeout,
		now:             time.Now,
	}
}

// ChangeStatus sets any of the six statuses regardless of the current one.
// Moving to delivered stamps DeliveredAt once.
func (s *Service) ChangeStatus(ctx context.Context, actor auth.Actor, id string, status Status) (*View, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	o, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	from := o.Status
	o.Status = status
	if status == StatusDelivered && o.DeliveredAt == nil {
		o.DeliveredAt = &now
	}
	o.UpdatedAt = now
	if err := s.store.UpdateOrder(ctx, o); err != nil {
		return nil, err
	}

	log.Printf("[Order] %s status %s -> %s by %s", o.Number, from, status, actor.UserID)
	s.publish(ctx, EventOrderStatusChanged, o.ID, OrderStatusChanged{
		OrderID:   o.ID,
		ShopID:    o.ShopID,
		From:      from,
		To:        status,
		Total:     o.Total,
		Paid:      o.Paid,
		PlacedAt:  o.CreatedAt,
		ChangedAt: now,
	})
	return s.resolveOne(ctx, o), nil
}

// MarkPaid sets the paid flag. Calling it on a paid order is a no-op.
func (s *Service) MarkPaid(ctx context.Context, actor auth.Actor, id string) (*View, error) {
	o, err := s.loadManaged(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if o.Paid {
		return s.resolveOne(ctx, o), nil
	}

	now := s.now()
	o.Paid = true
	o.UpdatedAt = now
	if err := s.store.UpdateOrder(ctx, o); err != nil {
		return nil, err
	}

	log.Printf("[Order] %s marked paid by %s", o.Number, actor.UserID)
	s.publish(ctx, EventOrderPaid, o.ID, OrderPaid{
		OrderID:  o.ID,
		ShopID:   o.ShopID,
		Status:   o.Status,
		Total:    o.Total,
		PlacedAt: o.CreatedAt,
		PaidAt:   now,
	})
	return s.resolveOne(ctx, o), nil
}

// Get returns an order visible to actor: its client, the merchant of its
// shop, or an admin.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (*View, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsClient() {
		if o.ClientID != actor.UserID {
			return nil, ErrNotOrderOwner
		}
	} else if err := s.authorizeShop(ctx, actor, o.ShopID); err != nil {
		return nil, err
	}
	return s.resolveOne(ctx, o), nil
}

// ListMine returns the client's orders, newest first.
func (s *Service) ListMine(ctx context.Context, clientID string, status Status) ([]*View, error) {
	orders, _, err := s.store.ListOrders(ctx, Filter{ClientID: clientID, Status: status})
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, orders), nil
}

// ListByShop returns the orders of a shop the actor manages.
func (s *Service) ListByShop(ctx context.Context, actor auth.Actor, shopID string, f Filter) ([]*View, error) {
	if err := s.authorizeShop(ctx, actor, shopID); err != nil {
		return nil, err
	}
	f.ShopID = shopID
	f.Offset, f.Limit = 0, 0
	orders, _, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, orders), nil
}

// List returns one page of all orders. page starts at 1.
func (s *Service) List(ctx context.Context, f Filter, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	f.Offset = (page - 1) * limit
	f.Limit = limit

	orders, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{
		Items: s.resolve(ctx, orders),
		Total: total,
		Page:  page,
		Pages: (total + limit - 1) / limit,
	}, nil
}

func (s *Service) loadManaged(ctx context.Context, actor auth.Actor, id string) (*Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeShop(ctx, actor, o.ShopID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) authorizeShop(ctx context.Context, actor auth.Actor, shopID string) error {
	if actor.IsAdmin() {
		return nil
	}
	sh, err := s.directory.GetShop(ctx, shopID)
	if err != nil {
		return err
	}
	return shop.Authorize(actor, sh)
}

func (s *Service) publish(ctx context.Context, eventType, orderID string, payload any) {
	e, err := events.New(eventType, orderID, payload)
	if err != nil {
		log.Printf("[Order] Failed to encode %s for %s: %v", eventType, orderID, err)
		return
	}
	if err := s.publisher.Publish(ctx, orderID, e); err != nil {
		log.Printf("[Order] Failed to publish %s for %s: %v", eventType, orderID, err)
	}
}

// resolve attaches shop and client summaries. Lookup failures leave only
// the id in the summary.
func (s *Service) resolve(ctx context.Context, orders []*Order) []*View {
	shops := make(map[string]ShopSummary)
	clients := make(map[string]ClientSummary)
	views := make([]*View, 0, len(orders))
	for _, o := range orders {
		sh, ok := shops[o.ShopID]
		if !ok {
			sh = ShopSummary{ID: o.ShopID}
			if found, err := s.directory.GetShop(ctx, o.ShopID); err == nil {
				sh.Number = found.Number
				sh.Name = found.Name
			}
			shops[o.ShopID] = sh
		}
		cl, ok := clients[o.ClientID]
		if !ok {
			cl = ClientSummary{ID: o.ClientID}
			if found, err := s.directory.GetUser(ctx, o.ClientID); err == nil {
				cl.Name = found.FullName()
				cl.Email = found.Email
			}
			clients[o.ClientID] = cl
		}
		views = append(views, &View{Order: o, Shop: sh, Client: cl})
	}
	return views
}

func (s *Service) resolveOne(ctx context.Context, o *Order) *View {
	return s.resolve(ctx, []*Order{o})[0]
}
