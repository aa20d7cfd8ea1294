package projection

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/mall-backoffice/internal/domain/order"
	"github.com/example/mall-backoffice/internal/events"
)

// DailySales is the projected sales of one shop on one calendar day (UTC).
type DailySales struct {
	ShopID      string    `json:"shop_id"`
	Day         time.Time `json:"day"`
	Orders      int       `json:"orders"`
	Revenue     int       `json:"revenue"`
	PaidRevenue int       `json:"paid_revenue"`
}

// Delta is a signed change to one DailySales row.
type Delta struct {
	ShopID      string
	Day         time.Time
	Orders      int
	Revenue     int
	PaidRevenue int
}

// SalesFilter narrows ListSales. Zero values match everything; To is
// inclusive.
type SalesFilter struct {
	ShopID string
	From   time.Time
	To     time.Time
}

// Store persists the sales projection.
type Store interface {
	// ApplySales adds d to its row unless eventID was already applied. It
	// reports whether the delta was applied.
	ApplySales(ctx context.Context, eventID string, d Delta) (bool, error)
	ListSales(ctx context.Context, f SalesFilter) ([]DailySales, error)
}

// Archiver keeps a copy of every consumed event.
type Archiver interface {
	Archive(ctx context.Context, e events.Event) error
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Projector struct {
	store    Store
	archiver Archiver
}

// NewProjector creates a projector. archiver may be nil.
func NewProjector(store Store, archiver Archiver) *Projector {
	return &Projector{store: store, archiver: archiver}
}

// HandleEvent is a kafka.MessageHandler. Unknown event types are archived
// and otherwise ignored.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	event, err := events.Decode(value)
	if err != nil {
		return err
	}

	log.Printf("[Projector] Received event: %s (order: %s)", event.Type, event.AggregateID)

	if p.archiver != nil {
		if err := p.archiver.Archive(ctx, event); err != nil {
			log.Printf("[Projector] Failed to archive event %s: %v", event.ID, err)
		}
	}

	d, ok, err := deltaFor(event)
	if err != nil || !ok {
		return err
	}
	applied, err := p.store.ApplySales(ctx, event.ID, d)
	if err != nil {
		return err
	}
	if !applied {
		log.Printf("[Projector] Skipping duplicate event %s", event.ID)
	}
	return nil
}

func deltaFor(event events.Event) (Delta, bool, error) {
	switch event.Type {
	case order.EventOrderPlaced:
		var e order.OrderPlaced
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return Delta{}, false, err
		}
		d := Delta{ShopID: e.ShopID, Day: Day(e.PlacedAt), Orders: 1, Revenue: e.Total}
		if e.Paid {
			d.PaidRevenue = e.Total
		}
		return d, true, nil

	case order.EventOrderStatusChanged:
		var e order.OrderStatusChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return Delta{}, false, err
		}
		sign := 0
		switch {
		case e.To == order.StatusCancelled && e.From != order.StatusCancelled:
			sign = -1
		case e.From == order.StatusCancelled && e.To != order.StatusCancelled:
			sign = 1
		}
		if sign == 0 {
			return Delta{}, false, nil
		}
		d := Delta{ShopID: e.ShopID, Day: Day(e.PlacedAt), Orders: sign, Revenue: sign * e.Total}
		if e.Paid {
			d.PaidRevenue = sign * e.Total
		}
		return d, true, nil

	case order.EventOrderPaid:
		var e order.OrderPaid
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return Delta{}, false, err
		}
		// cancelled orders are already out of the day's figures
		if e.Status == order.StatusCancelled {
			return Delta{}, false, nil
		}
		return Delta{ShopID: e.ShopID, Day: Day(e.PlacedAt), PaidRevenue: e.Total}, true, nil
	}
	return Delta{}, false, nil
}
